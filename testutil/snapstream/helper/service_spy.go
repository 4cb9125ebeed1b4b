package helper

import (
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
)

const (
	KindValue       = "value"
	KindSingleValue = "single_value"
	KindChild       = "child"
)

// PathQuery is a snapstream.Query for a slash-separated database path.
type PathQuery string

func (q PathQuery) Path() string {
	return string(q)
}

// Registration is one listener registered with a ServiceSpy.
type Registration struct {
	Handle   string
	Query    snapstream.Query
	Kind     string
	Value    snapstream.ValueEventListener
	Child    snapstream.ChildEventListener
	Active   bool
	Removals int
}

// ServiceSpy is a snapstream.Service for tests.
//
// Handles are random UUID strings. Callbacks are fired synchronously on the calling goroutine,
// outside the spy's lock, so listeners may call back into the spy.
type ServiceSpy struct {
	mu            sync.Mutex
	registrations []*Registration
	cachedValue   snapstream.Snapshot
	unknownRemove int
}

func NewServiceSpy() *ServiceSpy {
	return &ServiceSpy{}
}

// WithCachedValue makes value and single value listeners receive snapshot right away, inside the Add call,
// like a client that already holds the location in its local cache.
func (s *ServiceSpy) WithCachedValue(snapshot snapstream.Snapshot) *ServiceSpy {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cachedValue = snapshot

	return s
}

func (s *ServiceSpy) AddValueEventListener(query snapstream.Query, listener snapstream.ValueEventListener) snapstream.ListenerHandle {
	registration := s.register(&Registration{Query: query, Kind: KindValue, Value: listener})

	if cached := s.cached(); cached != nil {
		listener.OnDataChange(cached)
	}

	return registration.Handle
}

// AddListenerForSingleValueEvent registers a listener that is deactivated after its first callback.
func (s *ServiceSpy) AddListenerForSingleValueEvent(query snapstream.Query, listener snapstream.ValueEventListener) {
	registration := s.register(&Registration{Query: query, Kind: KindSingleValue, Value: listener})

	if cached := s.cached(); cached != nil {
		s.deactivate(registration)
		listener.OnDataChange(cached)
	}
}

func (s *ServiceSpy) AddChildEventListener(query snapstream.Query, listener snapstream.ChildEventListener) snapstream.ListenerHandle {
	registration := s.register(&Registration{Query: query, Kind: KindChild, Child: listener})

	return registration.Handle
}

// RemoveEventListener deactivates the registration with the given handle and counts the call,
// also when the registration is no longer active.
func (s *ServiceSpy) RemoveEventListener(_ snapstream.Query, handle snapstream.ListenerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, registration := range s.registrations {
		if registration.Handle == handle {
			registration.Removals++
			registration.Active = false

			return
		}
	}

	s.unknownRemove++
}

func (s *ServiceSpy) register(registration *Registration) *Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	registration.Handle = uuid.NewString()
	registration.Active = true
	s.registrations = append(s.registrations, registration)

	return registration
}

func (s *ServiceSpy) cached() snapstream.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cachedValue
}

func (s *ServiceSpy) deactivate(registration *Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	registration.Active = false
}

// active returns the active registrations of the given kinds and, for single value listeners, deactivates them.
func (s *ServiceSpy) active(kinds ...string) []*Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*Registration
	for _, registration := range s.registrations {
		if !registration.Active {
			continue
		}

		for _, kind := range kinds {
			if registration.Kind == kind {
				result = append(result, registration)
				if kind == KindSingleValue {
					registration.Active = false
				}

				break
			}
		}
	}

	return result
}

/***** firing callbacks *****/

// EmitValue fires OnDataChange on all active value and single value listeners and returns how many were called.
func (s *ServiceSpy) EmitValue(snapshot snapstream.Snapshot) int {
	registrations := s.active(KindValue, KindSingleValue)
	for _, registration := range registrations {
		registration.Value.OnDataChange(snapshot)
	}

	return len(registrations)
}

// EmitCancelled fires OnCancelled on all active listeners. Unlike a real client the spy keeps them
// registered, so that tests can observe the removal.
func (s *ServiceSpy) EmitCancelled(err error) int {
	registrations := s.active(KindValue, KindSingleValue, KindChild)
	for _, registration := range registrations {
		if registration.Child != nil {
			registration.Child.OnCancelled(err)
			continue
		}

		registration.Value.OnCancelled(err)
	}

	return len(registrations)
}

func (s *ServiceSpy) EmitChildAdded(snapshot snapstream.Snapshot, previousKey string) int {
	return s.emitChild(func(listener snapstream.ChildEventListener) { listener.OnChildAdded(snapshot, previousKey) })
}

func (s *ServiceSpy) EmitChildChanged(snapshot snapstream.Snapshot, previousKey string) int {
	return s.emitChild(func(listener snapstream.ChildEventListener) { listener.OnChildChanged(snapshot, previousKey) })
}

func (s *ServiceSpy) EmitChildRemoved(snapshot snapstream.Snapshot) int {
	return s.emitChild(func(listener snapstream.ChildEventListener) { listener.OnChildRemoved(snapshot) })
}

func (s *ServiceSpy) EmitChildMoved(snapshot snapstream.Snapshot, previousKey string) int {
	return s.emitChild(func(listener snapstream.ChildEventListener) { listener.OnChildMoved(snapshot, previousKey) })
}

func (s *ServiceSpy) emitChild(fire func(listener snapstream.ChildEventListener)) int {
	registrations := s.active(KindChild)
	for _, registration := range registrations {
		fire(registration.Child)
	}

	return len(registrations)
}

/***** inspection *****/

// Registrations returns copies of all registrations in registration order.
func (s *ServiceSpy) Registrations() []Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Registration, len(s.registrations))
	for i, registration := range s.registrations {
		result[i] = *registration
	}

	return result
}

// LastRegistration returns a copy of the most recent registration; ok is false if there is none.
func (s *ServiceSpy) LastRegistration() (registration Registration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.registrations) == 0 {
		return Registration{}, false
	}

	return *s.registrations[len(s.registrations)-1], true
}

func (s *ServiceSpy) ActiveListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, registration := range s.registrations {
		if registration.Active {
			count++
		}
	}

	return count
}

// TotalRemovals counts all RemoveEventListener calls, including those with unknown handles.
func (s *ServiceSpy) TotalRemovals() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.unknownRemove
	for _, registration := range s.registrations {
		total += registration.Removals
	}

	return total
}

// Ensure ServiceSpy implements snapstream.Service.
var _ snapstream.Service = (*ServiceSpy)(nil)
