// Package redisstore persists samples in Redis: one hash per body keyed by
// "lat|lon" with the elevation as value, plus a set of body names.
package redisstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/spatial"
)

const (
	keyPrefix = "landsat:"
	bodiesKey = keyPrefix + "bodies"
)

// Open creates a client for addr. It returns nil when addr is empty.
func Open(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

type Persister struct {
	rc *redis.Client
}

func New(rc *redis.Client) *Persister {
	return &Persister{rc: rc}
}

func samplesKey(body string) string {
	return keyPrefix + "samples:" + body
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatField(lat, lon float64) string {
	return formatFloat(lat) + "|" + formatFloat(lon)
}

func parseField(field string) (lat, lon float64, err error) {
	latStr, lonStr, ok := strings.Cut(field, "|")
	if !ok {
		return 0, 0, fmt.Errorf("malformed field %q", field)
	}
	if lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return 0, 0, fmt.Errorf("malformed latitude in %q: %w", field, err)
	}
	if lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return 0, 0, fmt.Errorf("malformed longitude in %q: %w", field, err)
	}
	return lat, lon, nil
}

func (p *Persister) Load(ctx context.Context) ([]datastore.Reading, error) {
	bodies, err := p.rc.SMembers(ctx, bodiesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(bodies)

	var readings []datastore.Reading
	for _, body := range bodies {
		fields, err := p.rc.HGetAll(ctx, samplesKey(body)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis hgetall %s: %w", body, err)
		}
		batch, err := decodeBody(body, fields)
		if err != nil {
			return nil, err
		}
		readings = append(readings, batch...)
	}
	return readings, nil
}

func decodeBody(body string, fields map[string]string) ([]datastore.Reading, error) {
	out := make([]datastore.Reading, 0, len(fields))
	for field, value := range fields {
		lat, lon, err := parseField(field)
		if err != nil {
			return nil, err
		}
		elev, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed elevation for %s %q: %w", body, field, err)
		}
		out = append(out, datastore.Reading{Body: body, Latitude: lat, Longitude: lon, Elevation: elev})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Latitude != out[j].Latitude {
			return out[i].Latitude < out[j].Latitude
		}
		return out[i].Longitude < out[j].Longitude
	})
	return out, nil
}

// encodeBody returns the hash fields for one body of snapshot
func encodeBody(snapshot *datastore.Index, body string) map[string]interface{} {
	fields := make(map[string]interface{}, snapshot.CountForBody(body))
	snapshot.Range(body, datastore.Everywhere, func(s spatial.Sample) bool {
		fields[formatField(s.Latitude(), s.Longitude())] = formatFloat(s.Elevation())
		return true
	})
	return fields
}

// Save replaces the stored sample set with snapshot in one MULTI/EXEC
func (p *Persister) Save(ctx context.Context, snapshot *datastore.Index) error {
	old, err := p.rc.SMembers(ctx, bodiesKey).Result()
	if err != nil {
		return fmt.Errorf("redis smembers: %w", err)
	}
	bodies := snapshot.BodiesKnown()

	_, err = p.rc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, body := range old {
			pipe.Del(ctx, samplesKey(body))
		}
		pipe.Del(ctx, bodiesKey)
		for _, body := range bodies {
			fields := encodeBody(snapshot, body)
			if len(fields) == 0 {
				continue
			}
			pipe.HSet(ctx, samplesKey(body), fields)
			pipe.SAdd(ctx, bodiesKey, body)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}
