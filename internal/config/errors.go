package config

import "errors"

var errMissingDSN = errors.New("storage.dsn is required for the postgres driver")
