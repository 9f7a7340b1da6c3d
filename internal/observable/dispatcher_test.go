package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatch(t *testing.T) {
	n := Notification{Store: "AppRoot", Path: "data.modal", Property: "isOpen"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"store match", Filter{Store: "AppRoot"}, true},
		{"store mismatch", Filter{Store: "ScreenLoading"}, false},
		{"prefix on container", Filter{PathPrefix: "data.modal"}, true},
		{"prefix on field", Filter{PathPrefix: "data.modal.isOpen"}, true},
		{"prefix on root", Filter{PathPrefix: "data"}, true},
		{"partial segment", Filter{PathPrefix: "data.mod"}, false},
		{"other region", Filter{Store: "AppRoot", PathPrefix: "data.seizureData"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(n))
		})
	}
}

func TestDispatcher_SubscribeAndUnsubscribe(t *testing.T) {
	d := NewDispatcher()

	var modal, all int
	unsubscribe := d.Subscribe(Filter{PathPrefix: "data.modal"}, func(Notification) { modal++ })
	d.Subscribe(Filter{}, func(Notification) { all++ })

	d.Emit(Notification{Store: "AppRoot", Path: "data.modal", Property: "isOpen"})
	d.Emit(Notification{Store: "AppRoot", Path: "data.seizureData.output", Property: "1"})

	assert.Equal(t, 1, modal)
	assert.Equal(t, 2, all)

	unsubscribe()
	d.Emit(Notification{Store: "AppRoot", Path: "data.modal", Property: "isOpen"})
	assert.Equal(t, 1, modal)
	assert.Equal(t, 3, all)
}
