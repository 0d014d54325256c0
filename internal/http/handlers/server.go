package handlers

import (
	"go.uber.org/zap"

	"github.com/openpantry/barcode-resolver/internal/resolver"
)

var (
	svc *resolver.Resolver
	log = zap.NewNop()

	curatorUsername     string
	curatorPasswordHash string
)

func SetResolver(r *resolver.Resolver) {
	svc = r
}

func SetLogger(l *zap.Logger) {
	log = l
}

func SetCuratorCredentials(username, passwordHash string) {
	curatorUsername = username
	curatorPasswordHash = passwordHash
}
