package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const vehiclesCollection = "vehicles"

// FirestoreVehicleStore reads vehicles from and writes the notification
// ledger to the "vehicles" collection
type FirestoreVehicleStore struct {
	client *firestore.Client
	log    *zap.Logger
}

func NewFirestoreVehicleStore(client *firestore.Client, log *zap.Logger) *FirestoreVehicleStore {
	return &FirestoreVehicleStore{client: client, log: log.Named("vehicles")}
}

// FindAll reads every vehicle document
func (s *FirestoreVehicleStore) FindAll(ctx context.Context) (*model.VehicleBatch, error) {
	docs, err := s.client.Collection(vehiclesCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, apperr.Transient("firestore.vehicles.findAll", err)
	}
	return s.toBatch(docs), nil
}

// FindByUser reads the vehicles owned by userID
func (s *FirestoreVehicleStore) FindByUser(ctx context.Context, userID string) (*model.VehicleBatch, error) {
	docs, err := s.client.Collection(vehiclesCollection).
		Where(fieldUserID, "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, apperr.Transient("firestore.vehicles.findByUser", err)
	}
	return s.toBatch(docs), nil
}

func (s *FirestoreVehicleStore) toBatch(docs []*firestore.DocumentSnapshot) *model.VehicleBatch {
	batch := &model.VehicleBatch{Vehicles: make([]model.Vehicle, 0, len(docs))}
	for _, doc := range docs {
		v, err := parseVehicleDocument(doc.Ref.ID, doc.Data())
		if err != nil {
			s.log.Warn("Skipping malformed vehicle document", zap.String("id", doc.Ref.ID), zap.Error(err))
			batch.Malformed = append(batch.Malformed, err)
			continue
		}
		batch.Vehicles = append(batch.Vehicles, v)
	}
	return batch
}

// RecordSent sets the ledger field of doc to at. The write happens in a
// transaction and never moves an existing timestamp backwards.
func (s *FirestoreVehicleStore) RecordSent(ctx context.Context, vehicleID string, doc model.DocumentType, at time.Time) error {
	op := "firestore.vehicles.recordSent"
	if !doc.Valid() {
		return apperr.Malformed(op, "unknown document type %q", doc)
	}
	field := model.LedgerField(doc)
	ref := s.client.Collection(vehiclesCollection).Doc(vehicleID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return apperr.NotFound(op, "vehicle %s not found", vehicleID)
		}
		if err != nil {
			return err
		}

		current, ok, err := toTime(snap.Data()[field])
		if err == nil && ok && current.After(at) {
			return nil
		}

		return tx.Update(ref, []firestore.Update{
			{Path: field, Value: at},
			{Path: fieldUpdatedAt, Value: firestore.ServerTimestamp},
		})
	})
	if err != nil {
		if apperr.IsNotFound(err) {
			return err
		}
		return apperr.Transient(op, fmt.Errorf("vehicle %s %s: %w", vehicleID, doc, err))
	}
	return nil
}
