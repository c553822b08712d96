// Project Structure Overview
/*
license-backend/
├── cmd/
│   ├── server/
│   │   └── main.go        HTTP service
│   └── keygen/
│       └── main.go        issues license keys into the store
├── internal/
│   ├── config/
│   │   ├── config.go
│   │   └── database.go
│   ├── database/
│   │   └── connection.go  store selection, gorm setup, migrations
│   ├── models/
│   │   ├── license_key.go
│   │   ├── license_event.go
│   │   └── common.go
│   ├── store/
│   │   ├── store.go       LicenseKeyStore, Filter, Fields
│   │   ├── gorm.go        PostgreSQL
│   │   └── sqlite.go      embedded SQLite
│   ├── services/
│   │   ├── key_issuer.go
│   │   ├── license_service.go
│   │   ├── verification.go
│   │   ├── password.go
│   │   └── errors.go
│   ├── handlers/
│   │   ├── auth.go
│   │   ├── verification.go
│   │   └── license.go
│   ├── middleware/
│   │   ├── rate_limit.go
│   │   ├── logging.go
│   │   ├── metrics.go
│   │   ├── cors.go
│   │   ├── guard.go
│   │   └── i18n.go
│   ├── i18n/
│   │   ├── i18n.go
│   │   ├── keys.go
│   │   └── locales/
│   │       ├── en.json
│   │       └── pt_BR.json
│   ├── utils/
│   │   ├── crypto.go
│   │   ├── validator.go
│   │   └── response.go
│   └── router/
│       └── router.go
├── go.mod
└── go.sum
*/

// Package licensebackend issues, registers and verifies software license keys.
// The service entry point is cmd/server; keys are issued with cmd/keygen.
package licensebackend
