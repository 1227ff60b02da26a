package actions

// Notifier shows short transient feedback to the user.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Err(msg string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Info(string) {}
func (NopNotifier) Warn(string) {}
func (NopNotifier) Err(string)  {}
