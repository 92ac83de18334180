package domain

import "go.trai.ch/zerr"

// Identity is the non-privileged user/group pair the final process runs as.
// It is created once during the build and owns the application and environment
// directories afterwards.
type Identity struct {
	User  string `yaml:"user"`
	UID   int    `yaml:"uid"`
	Group string `yaml:"group"`
	GID   int    `yaml:"gid"`
}

// Validate rejects root and incomplete identities. The final process never
// runs as root.
func (id Identity) Validate() error {
	if id.User == "" || id.Group == "" {
		return zerr.With(ErrInvalidPlan, "reason", "identity user and group must be set")
	}
	if id.UID == 0 || id.GID == 0 {
		err := zerr.With(ErrRootIdentity, "user", id.User)
		return zerr.With(err, "uid", id.UID)
	}
	return nil
}

// Spec returns the "user:group" form used for the image config User field.
func (id Identity) Spec() string {
	return id.User + ":" + id.Group
}

// PasswdEntry is a single user record parsed from an image's /etc/passwd.
type PasswdEntry struct {
	Name  string
	UID   int
	GID   int
	Home  string
	Shell string
}

// GroupEntry is a single group record parsed from an image's /etc/group.
type GroupEntry struct {
	Name string
	GID  int
}

// ConflictsWith reports whether creating the identity in an image holding the
// given user and group tables would collide, by name or by numeric id. The
// underlying tooling offers no idempotent creation, so a collision aborts the
// build rather than re-using the existing entry.
func (id Identity) ConflictsWith(users []PasswdEntry, groups []GroupEntry) error {
	for _, u := range users {
		if u.Name == id.User || u.UID == id.UID {
			err := zerr.With(ErrIdentityExists, "user", id.User)
			err = zerr.With(err, "uid", id.UID)
			return zerr.With(err, "existing", u.Name)
		}
	}
	for _, g := range groups {
		if g.Name == id.Group || g.GID == id.GID {
			err := zerr.With(ErrIdentityExists, "group", id.Group)
			err = zerr.With(err, "gid", id.GID)
			return zerr.With(err, "existing", g.Name)
		}
	}
	return nil
}
