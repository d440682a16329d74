package service

import (
	"context"

	"github.com/studyhub-dev/study-portal-api/internal/repository"
)

// changeNotifier is the slice of the change feed the services need. Services
// publish an event after every successful write so the state store mirrors
// refresh.
type changeNotifier interface {
	CollectionChanged(ctx context.Context, collection string)
}

type nopNotifier struct{}

func (nopNotifier) CollectionChanged(context.Context, string) {}

const (
	collectionMaterials = repository.CollectionMaterials
	collectionSubjects  = repository.CollectionSubjects
	collectionUsers     = repository.CollectionUsers
	collectionReports   = repository.CollectionReports
)
