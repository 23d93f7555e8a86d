package backup

// Config controls statistics snapshots taken before training overwrites
// the stored tables.
type Config struct {
	Enabled  bool
	Dir      string
	KeepLast int
	Prefix   string
}

// Snapshotter is the minimal store contract used by Manager.
type Snapshotter interface {
	DBPath() string
	SnapshotTo(dstPath string) error
}
