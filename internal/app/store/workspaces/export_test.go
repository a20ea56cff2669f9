package workspacestore

// SetInviteCodeGenerator replaces the invite-code source until restore runs.
func SetInviteCodeGenerator(f func() string) (restore func()) {
	prev := newInviteCode
	newInviteCode = f
	return func() { newInviteCode = prev }
}
