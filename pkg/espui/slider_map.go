package espui

import (
	"fmt"
	"sync"
)

// sliderMap holds the panel's sliders keyed by their device channel key
type sliderMap struct {
	m    map[string]*Slider
	lock sync.Locker
}

func newSliderMap() *sliderMap {
	return &sliderMap{
		m:    make(map[string]*Slider),
		lock: &sync.Mutex{},
	}
}

// iterate runs f for each slider in the map
func (m *sliderMap) iterate(f func(string, *Slider)) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for key, value := range m.m {
		f(key, value)
	}
}

func (m *sliderMap) get(key string) (*Slider, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	value, ok := m.m[key]
	return value, ok
}

func (m *sliderMap) set(key string, value *Slider) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.m[key] = value
}

func (m *sliderMap) String() string {
	m.lock.Lock()
	defer m.lock.Unlock()

	return fmt.Sprintf("<%d sliders>", len(m.m))
}
