package shell

// Kill runs the bgkill termination path with op in place of the Manager.
func (s *Shell) Kill(args []string, op func(int) error) {
	s.kill(args, "terminated", op)
}
