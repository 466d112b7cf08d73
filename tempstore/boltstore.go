package tempstore

import (
	"encoding/binary"

	"github.com/boltdb/bolt"
	errgo "gopkg.in/errgo.v1"
)

var readingBucket = []byte("readings")

// BoltStore provides an implementation of Store backed by a bolt
// database file. Readings are keyed by (time, device id, sensor id)
// so that iteration yields them in time order.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore returns a bolt-backed store using the database
// file at the given path, creating it if it doesn't exist.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0666, nil)
	if err != nil {
		return nil, errgo.Notef(err, "cannot open bolt store")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(readingBucket)
		if err != nil {
			return errgo.Mask(err)
		}
		b.FillPercent = 0.9 // Mostly append-only.
		return nil
	}); err != nil {
		db.Close()
		return nil, errgo.Mask(err)
	}
	return &BoltStore{
		db: db,
	}, nil
}

// Append implements Store.Append.
func (s *BoltStore) Append(r Reading) error {
	val, err := r.MarshalText()
	if err != nil {
		return errgo.Notef(err, "cannot marshal reading")
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(readingBucket)
		if b == nil {
			return errgo.Newf("no reading bucket")
		}
		return b.Put(readingKey(r), val)
	})
	return errgo.Mask(err)
}

// readingKey returns the bolt key for r. The timestamp comes
// first, big-endian, so keys sort by time.
func readingKey(r Reading) []byte {
	key := make([]byte, 8, 8+len(r.DeviceID)+1+len(r.SensorID))
	binary.BigEndian.PutUint64(key, uint64(r.Time.UnixNano()/1e6))
	key = append(key, r.DeviceID...)
	key = append(key, 0)
	key = append(key, r.SensorID...)
	return key
}

// Readings returns all the readings in the store in time order.
func (s *BoltStore) Readings() ([]Reading, error) {
	var readings []Reading
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(readingBucket)
		if b == nil {
			return errgo.Newf("no reading bucket")
		}
		return b.ForEach(func(k, v []byte) error {
			var r Reading
			if err := r.UnmarshalText(v); err != nil {
				logger.Warningf("skipping %v", err)
				return nil
			}
			readings = append(readings, r)
			return nil
		})
	})
	if err != nil {
		return nil, errgo.Mask(err)
	}
	return readings, nil
}

// Close implements Store.Close.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return errgo.Mask(err)
}
