package dom

import "golang.org/x/net/html"

// MutationType classifies a mutation record.
type MutationType int

// Mutation record types.
const (
	ChildList MutationType = iota + 1
	Attributes
)

// String returns the record type name.
func (t MutationType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case Attributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// MutationRecord describes one change to the tree.
type MutationRecord struct {
	Type            MutationType
	Target          *html.Node
	AddedNodes      []*html.Node
	RemovedNodes    []*html.Node
	PreviousSibling *html.Node
	NextSibling     *html.Node
	AttributeName   string
	OldValue        string
}

// ObserveOptions selects which mutations an observer receives.
type ObserveOptions struct {
	ChildList  bool // node additions and removals
	Attributes bool // attribute changes
	Subtree    bool // include descendants of the target
}

// Callback receives a batch of records in the order they happened.
type Callback func(records []MutationRecord)

// Observer receives batched mutation records for a subtree.
type Observer struct {
	doc      *Document
	target   *html.Node
	opts     ObserveOptions
	callback Callback
	records  []MutationRecord
	active   bool
}

// Observe registers callback for mutations on target.
func (d *Document) Observe(target *html.Node, opts ObserveOptions, callback Callback) (*Observer, error) {
	if target == nil {
		return nil, ErrNilNode
	}
	o := &Observer{
		doc:      d,
		target:   target,
		opts:     opts,
		callback: callback,
		active:   true,
	}
	d.observers = append(d.observers, o)
	return o, nil
}

// Disconnect stops delivery and drops queued records.
func (o *Observer) Disconnect() {
	if !o.active {
		return
	}
	o.active = false
	o.records = nil

	obs := o.doc.observers
	for i, other := range obs {
		if other == o {
			o.doc.observers = append(obs[:i], obs[i+1:]...)
			break
		}
	}
}

// TakeRecords returns and clears the queued records.
func (o *Observer) TakeRecords() []MutationRecord {
	recs := o.records
	o.records = nil
	return recs
}

// wants reports whether the observer subscribes to rec.
func (o *Observer) wants(rec MutationRecord) bool {
	switch rec.Type {
	case ChildList:
		if !o.opts.ChildList {
			return false
		}
	case Attributes:
		if !o.opts.Attributes {
			return false
		}
	default:
		return false
	}
	if rec.Target == o.target {
		return true
	}
	return o.opts.Subtree && isInclusiveAncestor(o.target, rec.Target)
}

// record queues rec for interested observers and schedules one delivery.
func (d *Document) record(rec MutationRecord) {
	queued := false
	for _, o := range d.observers {
		if o.active && o.wants(rec) {
			o.records = append(o.records, rec)
			queued = true
		}
	}
	if !queued || d.delivery || d.scheduler == nil {
		return
	}
	d.delivery = true
	if !d.scheduler(d.Flush) {
		d.delivery = false
	}
}

// Pending reports whether any observer has undelivered records.
func (d *Document) Pending() bool {
	for _, o := range d.observers {
		if len(o.records) > 0 {
			return true
		}
	}
	return false
}

// Flush delivers queued records to every observer. Records produced by the
// callbacks themselves are delivered in a later flush.
func (d *Document) Flush() {
	d.delivery = false

	observers := make([]*Observer, len(d.observers))
	copy(observers, d.observers)

	for _, o := range observers {
		recs := o.TakeRecords()
		if len(recs) == 0 || !o.active || o.callback == nil {
			continue
		}
		o.callback(recs)
	}
}
