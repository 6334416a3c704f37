package config

import (
	"fmt"

	"github.com/marmos91/smbsec/pkg/identity"
	"github.com/marmos91/smbsec/pkg/identity/store"
)

// CreateUserStore builds the user store selected by the identity section.
//
// The "config" backend serves the inline user list; "file" watches a YAML
// user file (which carries its own guest policy); "badger" opens an
// embedded BadgerDB; "database" connects to the store configured by the
// top-level database section.
func (c *Config) CreateUserStore() (identity.UserStore, error) {
	switch c.Identity.Store {
	case "config", "":
		users := make([]*identity.User, 0, len(c.Identity.Users))
		for i := range c.Identity.Users {
			users = append(users, &c.Identity.Users[i])
		}
		return identity.NewConfigUserStore(users, &c.Identity.Guest)

	case "file":
		if c.Identity.UsersFile == "" {
			return nil, fmt.Errorf("file user store requires identity.users_file to be set")
		}
		return store.NewFileStore(c.Identity.UsersFile)

	case "badger":
		if c.Identity.BadgerPath == "" {
			return nil, fmt.Errorf("badger user store requires identity.badger_path to be set")
		}
		return store.NewBadgerStore(c.Identity.BadgerPath, c.Identity.Guest)

	case "database":
		dbCfg := c.Database
		dbCfg.Guest = c.Identity.Guest
		return store.NewGORMStore(&dbCfg)

	default:
		return nil, fmt.Errorf("unknown user store backend: %q", c.Identity.Store)
	}
}
