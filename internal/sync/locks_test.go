package sync

import (
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var wg gosync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("u1")
			counter++
			km.Unlock("u1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	km.Lock("alice")
	// A different key must not block.
	done := make(chan struct{})
	go func() {
		km.Lock("bob")
		km.Unlock("bob")
		close(done)
	}()
	<-done
	km.Unlock("alice")
}
