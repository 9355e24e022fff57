package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversInOrder(t *testing.T) {
	emitter := NewEmitter[int]()

	var order []string
	emitter.Subscribe(func(v int) { order = append(order, "first") })
	emitter.Subscribe(func(v int) { order = append(order, "second") })

	emitter.Fire(1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEmitterUnsubscribe(t *testing.T) {
	emitter := NewEmitter[string]()

	calls := 0
	unsubscribe := emitter.Subscribe(func(string) { calls++ })

	emitter.Fire("a")
	unsubscribe()
	emitter.Fire("b")
	unsubscribe()
	emitter.Fire("c")

	assert.Equal(t, 1, calls)
}

func TestEmitterSubscribeDuringFire(t *testing.T) {
	emitter := NewEmitter[int]()

	lateCalls := 0
	emitter.Subscribe(func(int) {
		emitter.Subscribe(func(int) { lateCalls++ })
	})

	// A handler added during Fire only sees the next Fire.
	emitter.Fire(1)
	assert.Equal(t, 0, lateCalls)

	emitter.Fire(2)
	assert.Equal(t, 1, lateCalls)
}
