package feature

// OnceNotifier guards a notification that must run at most once.
type OnceNotifier struct {
	notified bool
}

// Notified reports whether the notification has run (or is running).
func (o *OnceNotifier) Notified() bool { return o.notified }

// Reset clears the flag so the next Ensure runs the notification again.
func (o *OnceNotifier) Reset() { o.notified = false }

// Ensure runs notify the first time it is called with a non-negative depth.
// The flag is set before notify runs: notification can create reactions
// whose products include the notifying object, and the re-entrant call must
// be a no-op.  A failed notify clears the flag again so a later call retries.
// A negative depth leaves the notifier untouched.
func (o *OnceNotifier) Ensure(depth int, notify func(depth int) error) error {
	if o.notified || depth < 0 {
		return nil
	}
	o.notified = true
	if err := notify(depth); err != nil {
		o.notified = false
		return err
	}
	return nil
}
