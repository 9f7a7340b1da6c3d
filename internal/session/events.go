package session

import (
	"strconv"
	"strings"

	"github.com/rewired-gh/seizurescope/internal/observable"
	"github.com/rewired-gh/seizurescope/internal/window"
)

// Event is a classified store notification. The concrete types are
// SeizureDataChanged, ModalChanged, ProgressChanged, WindowChanged and
// OtherChanged.
type Event interface {
	Source() observable.Notification
}

// SeizureDataChanged reports a write under data.seizureData.
type SeizureDataChanged struct {
	observable.Notification
	Field string // input, output or outputFrozen; empty when the region was replaced
	Index int    // Sequence index of a single-prediction edit, -1 otherwise
}

// ModalChanged reports a write under data.modal.
type ModalChanged struct {
	observable.Notification
	Field string
}

// ProgressChanged reports a load progress update.
type ProgressChanged struct {
	observable.Notification
	Field string
	Value int
}

// WindowChanged reports a move of the chart window.
type WindowChanged struct {
	observable.Notification
	Field string
}

// OtherChanged is any notification the session does not interpret.
type OtherChanged struct {
	observable.Notification
}

func (e SeizureDataChanged) Source() observable.Notification { return e.Notification }
func (e ModalChanged) Source() observable.Notification       { return e.Notification }
func (e ProgressChanged) Source() observable.Notification    { return e.Notification }
func (e WindowChanged) Source() observable.Notification      { return e.Notification }
func (e OtherChanged) Source() observable.Notification       { return e.Notification }

// Classify turns a notification into a typed event based on its store and path.
func Classify(n observable.Notification) Event {
	switch n.Store {
	case RootStoreName:
		segments := strings.Split(n.FullPath(), ".")[1:]
		if len(segments) == 0 {
			break
		}
		switch segments[0] {
		case window.SeizureDataKey:
			e := SeizureDataChanged{Notification: n, Index: -1}
			if len(segments) > 1 {
				e.Field = segments[1]
			}
			if len(segments) > 2 {
				if i, err := strconv.Atoi(segments[2]); err == nil {
					e.Index = i
				}
			}
			return e
		case ModalKey:
			e := ModalChanged{Notification: n}
			if len(segments) > 1 {
				e.Field = segments[1]
			}
			return e
		}
	case LoadingStoreName:
		value, _ := n.NewValue.(int)
		return ProgressChanged{Notification: n, Field: n.Property, Value: value}
	case window.StoreName:
		return WindowChanged{Notification: n, Field: n.Property}
	}
	return OtherChanged{Notification: n}
}
