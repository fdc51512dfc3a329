// Package jobmanager provides functionality for running and managing Linux
// processes as background Jobs.
//
// A Job represents a process that has been launched in the background and is
// either running or stopped. Jobs are held in a Table keyed by pid.
//
// The Table is kept consistent with the kernel by a Reaper, which drains
// process status-change notifications and applies them. A Dispatcher only
// requests state changes by sending signals; it never mutates the Table.
//
// A Manager wires these together with an Executor that launches new Jobs.
package jobmanager
