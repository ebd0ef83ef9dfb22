package testutil

// Recover runs f and returns the value recovered from any panic it causes.
func Recover(f func()) (r any) {
	defer func() { r = recover() }()
	f()
	return
}
