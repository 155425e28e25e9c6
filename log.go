package muon

import "github.com/sirupsen/logrus"

// log is the package-wide logger. The teacher (squashfs) sprinkles
// log.Printf calls around superblock/inode decoding; Muon's façade mutates
// state far more than squashfs's read-only reader does, so callers get a
// real leveled logger instead. Format logs at Info, Mount and Creat log at
// Debug; no other operation, and none of the allocators, logs anything.
// Swap it with SetLogger to redirect or silence
// it (e.g. in an embedding kernel that owns its own log sink).
var log = logrus.New()

func init() {
	log.SetLevel(logrus.WarnLevel)
}

// SetLogger replaces the package-wide logger. Passing nil resets to a fresh,
// warn-level default.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = logrus.New()
		l.SetLevel(logrus.WarnLevel)
	}
	log = l
}
