package mtree

import (
	"github.com/cockroachdb/errors"
)

// NewTree creates a tree over store. If the store's header says the root
// already exists, the root entry is rebuilt from the persisted root node.
func NewTree(store NodeStore, settings Settings, cfg Config) (*Tree, error) {
	cfg = cfg.normalized()
	settings = settings.normalized()
	if err := settings.validate(); err != nil {
		return nil, err
	}

	t := &Tree{
		store:    store,
		settings: settings,
		cfg:      cfg,
		stats:    &Statistics{},
		log:      cfg.Logger.WithField("component", "mtree"),
	}

	if store.Header().Initialized {
		root, err := store.ReadNode(store.RootID())
		if err != nil {
			return nil, errors.Wrap(err, "failed to read root node")
		}
		t.rootEntry = NewDirectoryEntry(root.ID(), NoObject, 0, root.CoveringRadiusFromEntries())
		t.initialized = true
		t.log.WithField("height", t.heightUnchecked()).Info("opened existing index")
	}
	return t, nil
}

// OpenTree builds the PageFile on p and the tree on top of it.
func OpenTree(p Pager, settings Settings, cfg Config) (*Tree, error) {
	pf, err := NewPageFile(p, cfg)
	if err != nil {
		return nil, err
	}
	t, err := NewTree(pf, settings, cfg)
	if err != nil {
		pf.Close()
		return nil, err
	}
	return t, nil
}

// initialize creates the empty leaf root on the first insert.
func (t *Tree) initialize() error {
	root, err := t.store.NewLeafNode()
	if err != nil {
		return err
	}
	if root.ID() != t.store.RootID() {
		return errors.AssertionFailedf("first node landed on page %d, root page is %d", root.ID(), t.store.RootID())
	}
	if err := t.store.WriteNode(root); err != nil {
		return err
	}
	h := t.store.Header()
	h.Initialized = true
	if err := t.store.SetHeader(h); err != nil {
		return err
	}
	t.rootEntry = NewDirectoryEntry(root.ID(), NoObject, 0, 0)
	t.initialized = true
	t.log.WithField("root", root.ID()).Info("initialized index")
	return nil
}

// Store returns the node store the tree persists into.
func (t *Tree) Store() NodeStore { return t.store }

func (t *Tree) Sync() error {
	return t.store.Sync()
}

func (t *Tree) Close() error {
	return t.store.Close()
}
