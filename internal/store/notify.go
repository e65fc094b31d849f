package store

import "sync"

// Notifier fans out per-owner change signals to registered watchers. Store
// implementations call Notify after every successful write; the live sync
// layer consumes the channels handed out by Watch.
//
// Channels are buffered with capacity one so signals coalesce: a watcher that
// is busy reading a snapshot observes at most one pending signal covering all
// writes that happened meanwhile.
type Notifier struct {
	mu       sync.Mutex
	watchers map[string]map[int]chan struct{}
	nextID   int
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{watchers: make(map[string]map[int]chan struct{})}
}

// Watch registers a watcher for the owner and returns its signal channel and
// a cancel func. Cancel detaches the watcher and closes the channel; it is
// safe to call more than once.
func (n *Notifier) Watch(ownerID string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan struct{}, 1)
	if n.watchers[ownerID] == nil {
		n.watchers[ownerID] = make(map[int]chan struct{})
	}
	n.watchers[ownerID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if set, ok := n.watchers[ownerID]; ok {
			if _, ok := set[id]; ok {
				delete(set, id)
				close(ch)
				if len(set) == 0 {
					delete(n.watchers, ownerID)
				}
			}
		}
	}
	return ch, cancel
}

// Notify signals every watcher of the owner. Sends never block: a watcher
// with a pending signal keeps exactly one.
func (n *Notifier) Notify(ownerID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.watchers[ownerID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
