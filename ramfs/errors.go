package ramfs

import "errors"

// Sentinel errors surfaced at the engine boundary. Callers should match on
// these with errors.Is; ramdisk.Errno maps them to the numbered codes of
// spec §6 for hosts that need the original wire contract.
var (
	ErrInvalidArgument    = errors.New("ramfs: invalid argument")
	ErrExists             = errors.New("ramfs: already exists")
	ErrNoSpace            = errors.New("ramfs: no space left")
	ErrFileTooBig         = errors.New("ramfs: file too big")
	ErrBusy               = errors.New("ramfs: resource busy")
	ErrNotEmpty           = errors.New("ramfs: directory not empty")
	ErrAlreadyInitialized = errors.New("ramfs: already initialized")
	ErrNotInitialized     = errors.New("ramfs: not initialized")

	// ErrConsistency is returned for conditions that should be impossible
	// under the invariants of spec §8 (e.g. a free count that disagrees
	// with the bitmap, or an inode-table scan that finds nothing despite a
	// positive free-inode count). Every occurrence is logged at Error
	// level with diagnostic fields before being returned.
	ErrConsistency = errors.New("ramfs: internal consistency failure")
)
