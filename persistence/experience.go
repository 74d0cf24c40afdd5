// Package persistence saves and restores experience records and the
// control loop's event log, backed by a dual file/MongoDB input source
// generalized to this core's own record types.
package persistence

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/config"
	"github.com/junctionlab/signalcore/memory"
)

var log = logrus.WithField("module", "persistence")

// experienceDoc is the bson/json wire shape of a memory.Record. Unknown
// fields are ignored on decode so the schema can grow without breaking
// old snapshots.
type experienceDoc struct {
	StateVector    [memory.StateVectorSize]float64 `bson:"state_vector" json:"state_vector"`
	ChosenApproach string                           `bson:"chosen_approach" json:"chosen_approach"`
	Reward         float64                          `bson:"reward" json:"reward"`
	Timestamp      float64                          `bson:"timestamp" json:"timestamp"`
}

func toDoc(r memory.Record) experienceDoc {
	return experienceDoc{StateVector: r.StateVector, ChosenApproach: r.ChosenApproach.String(), Reward: r.Reward, Timestamp: r.Timestamp}
}

func (d experienceDoc) toRecord() memory.Record {
	a, _ := approach.ParseApproach(d.ChosenApproach)
	return memory.Record{StateVector: d.StateVector, ChosenApproach: a, Reward: d.Reward, Timestamp: d.Timestamp}
}

// ExperienceStore persists memory.Records to either a local JSONL file or
// a MongoDB collection, chosen by which fields of config.PersistencePath
// are set.
type ExperienceStore struct {
	path config.PersistencePath
	coll *mongo.Collection
	cli  *mongo.Client
}

// NewExperienceStore binds the configured backend without opening it. A
// MongoDB client is dialed later by the caller via Connect; file mode is
// used whenever path.URI is empty.
func NewExperienceStore(path config.PersistencePath) *ExperienceStore {
	return &ExperienceStore{path: path}
}

// Connect establishes the MongoDB client when path.URI is set. A no-op in
// file mode.
func (s *ExperienceStore) Connect(ctx context.Context) error {
	if s.path.URI == "" {
		return nil
	}
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(s.path.URI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	s.cli = cli
	s.coll = cli.Database(s.path.DB).Collection(s.path.Col)
	return nil
}

// Close disconnects the MongoDB client, if one was opened.
func (s *ExperienceStore) Close(ctx context.Context) {
	if s.cli != nil {
		_ = s.cli.Disconnect(ctx)
	}
}

// Load populates store from the configured backend, tolerating a missing
// file or empty collection (an empty experience history is valid at
// startup).
func (s *ExperienceStore) Load(ctx context.Context, store *memory.Store) error {
	if s.path.URI != "" {
		return s.loadMongo(ctx, store)
	}
	return s.loadFile(store)
}

func (s *ExperienceStore) loadFile(store *memory.Store) error {
	if s.path.File == "" {
		return nil
	}
	f, err := os.Open(s.path.File)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open experience file: %w", err)
	}
	defer f.Close()

	var records []memory.Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var doc experienceDoc
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			log.WithError(err).Warn("skipping malformed experience record")
			continue
		}
		records = append(records, doc.toRecord())
	}
	store.Load(records)
	log.WithField("count", len(records)).Info("loaded experience store from file")
	return sc.Err()
}

func (s *ExperienceStore) loadMongo(ctx context.Context, store *memory.Store) error {
	if s.coll == nil {
		return nil
	}
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("find experience records: %w", err)
	}
	defer cur.Close(ctx)

	var records []memory.Record
	for cur.Next(ctx) {
		var doc experienceDoc
		if err := cur.Decode(&doc); err != nil {
			log.WithError(err).Warn("skipping malformed experience document")
			continue
		}
		records = append(records, doc.toRecord())
	}
	store.Load(records)
	log.WithField("count", len(records)).Info("loaded experience store from mongo")
	return cur.Err()
}

// Save persists every record currently in store to the configured
// backend, overwriting any prior snapshot.
func (s *ExperienceStore) Save(ctx context.Context, store *memory.Store) error {
	if s.path.URI != "" {
		return s.saveMongo(ctx, store)
	}
	return s.saveFile(store)
}

func (s *ExperienceStore) saveFile(store *memory.Store) error {
	if s.path.File == "" {
		return nil
	}
	f, err := os.Create(s.path.File)
	if err != nil {
		return fmt.Errorf("create experience file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range store.Snapshot() {
		if err := enc.Encode(toDoc(r)); err != nil {
			return fmt.Errorf("encode experience record: %w", err)
		}
	}
	return w.Flush()
}

func (s *ExperienceStore) saveMongo(ctx context.Context, store *memory.Store) error {
	if s.coll == nil {
		return nil
	}
	if err := s.coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop experience collection: %w", err)
	}
	snapshot := store.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}
	docs := make([]any, len(snapshot))
	for i, r := range snapshot {
		docs[i] = toDoc(r)
	}
	_, err := s.coll.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert experience records: %w", err)
	}
	return nil
}

// AppendAsync persists a single new record without blocking the caller's
// decision path; failures are logged, never propagated, matching the
// adapter package's fail-safe posture.
func (s *ExperienceStore) AppendAsync(r memory.Record) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.path.URI != "" && s.coll != nil {
			if _, err := s.coll.InsertOne(ctx, toDoc(r)); err != nil {
				log.WithError(err).Debug("append experience record to mongo failed")
			}
			return
		}
		if s.path.File == "" {
			return
		}
		f, err := os.OpenFile(s.path.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.WithError(err).Debug("append experience record to file failed")
			return
		}
		defer f.Close()
		if err := json.NewEncoder(f).Encode(toDoc(r)); err != nil {
			log.WithError(err).Debug("encode appended experience record failed")
		}
	}()
}
