// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration shared by kontakte-import
// and kontakte-server.
//
// The file is named by the KONTAKTE_CONFIG environment variable ([Load])
// or a --config flag ([LoadFile]); [Resolve] picks between the two and
// falls back to [Default] when neither is given. There is no file
// discovery.
//
// A file has a client section (how the import wizard reaches the
// server and how long it polls) and a server section (listen address,
// database, upload limits, task expiry). Sections named after an
// environment (development, staging, production) override base values
// when [Config].Environment matches.
//
// Path fields expand ${HOME}, ${KONTAKTE_DATA} and ${VAR:-default}
// after loading. No other environment variables override config values.
package config
