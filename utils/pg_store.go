package utils

import (
	"database/sql"
	"encoding/json"
	"fmt"

	goeval "github.com/edisonguo/govaluate"
	_ "github.com/lib/pq"
)

// PGLayerStore serves the layer catalogue out of Postgres for
// deployments whose coverage inventory is too large or too dynamic
// for config files. Each row of wcs.layers holds one layer definition
// as the same JSON document a config file layer entry uses.
type PGLayerStore struct {
	conf   *Config
	db     *sql.DB
	filter *goeval.EvaluableExpression
}

func NewPGLayerStore(conf *Config) (*PGLayerStore, error) {
	filter, err := ParseLayerFilterExpression(conf.ServiceConfig.WCSLayerFilter)
	if err != nil {
		return nil, fmt.Errorf("invalid wcs_layer_filter: %v", err)
	}

	db, err := sql.Open("postgres", conf.ServiceConfig.LayerDB)
	if err != nil {
		return nil, err
	}
	return &PGLayerStore{conf: conf, db: db, filter: filter}, nil
}

func (s *PGLayerStore) Close() error {
	return s.db.Close()
}

func (s *PGLayerStore) decorate(layer *Layer) {
	layer.NameSpace = s.conf.ServiceConfig.NameSpace
	layer.OWSHostname = s.conf.ServiceConfig.OWSHostname
	if layer.Metadata == nil {
		layer.Metadata = map[string]string{}
	}
}

func (s *PGLayerStore) Layers() ([]*Layer, error) {
	var payload string
	err := s.db.QueryRow(
		`select coalesce(json_agg(definition order by name), '[]'::json)::text from wcs.layers where namespace = $1`,
		s.conf.ServiceConfig.NameSpace).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("layer db query failed: %v", err)
	}

	var rows []Layer
	if err = json.Unmarshal([]byte(payload), &rows); err != nil {
		return nil, fmt.Errorf("layer db payload decode failed: %v", err)
	}

	layers := make([]*Layer, len(rows))
	for i := range rows {
		s.decorate(&rows[i])
		layers[i] = &rows[i]
	}
	return layers, nil
}

func (s *PGLayerStore) LayerByName(name string) (*Layer, error) {
	var payload string
	err := s.db.QueryRow(
		`select definition::text from wcs.layers where namespace = $1 and name = $2`,
		s.conf.ServiceConfig.NameSpace, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s not found in layer db", name)
	}
	if err != nil {
		return nil, fmt.Errorf("layer db query failed: %v", err)
	}

	layer := &Layer{}
	if err = json.Unmarshal([]byte(payload), layer); err != nil {
		return nil, fmt.Errorf("layer db payload decode failed: %v", err)
	}
	s.decorate(layer)
	return layer, nil
}

func (s *PGLayerStore) IsWCSSupported(layer *Layer) bool {
	return IsLayerWCSSupported(layer, s.filter)
}

// NewLayerStore picks the store implementation for a namespace:
// Postgres when layer_db is configured, the config files otherwise.
func NewLayerStore(conf *Config) (LayerStore, error) {
	if len(conf.ServiceConfig.LayerDB) > 0 {
		return NewPGLayerStore(conf)
	}
	return NewConfigLayerStore(conf)
}
