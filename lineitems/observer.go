package lineitems

import "time"

// Observer is told about every editor mutation once it completes.
type Observer interface {
	ObserveMutation(kind, op string, remote bool, err error, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveMutation(string, string, bool, error, time.Duration) {}
