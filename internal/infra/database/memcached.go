package database

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

func NewMemcached(server string) (*memcache.Client, error) {
	client := memcache.New(server)
	if err := client.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to memcached")
	}
	return client, nil
}
