package utils

import (
	"fmt"
	"log"
	"strings"

	goeval "github.com/edisonguo/govaluate"
)

// LayerStore enumerates the published layers of one namespace and
// answers the WCS-support predicate. The primary implementation is
// backed by the config files; PGLayerStore serves the same contract
// out of Postgres.
type LayerStore interface {
	Layers() ([]*Layer, error)
	LayerByName(name string) (*Layer, error)
	IsWCSSupported(layer *Layer) bool
}

// ParseLayerFilterExpression compiles the optional wcs_layer_filter
// config expression. Valid variables are the layer fields name,
// namespace, projection and title, plus md_<key> for metadata
// lookups.
func ParseLayerFilterExpression(pattern string) (*goeval.EvaluableExpression, error) {
	if len(strings.TrimSpace(pattern)) == 0 {
		return nil, nil
	}

	expr, err := goeval.NewEvaluableExpression(pattern)
	if err != nil {
		return nil, err
	}

	validVariables := map[string]struct{}{"name": struct{}{}, "namespace": struct{}{}, "projection": struct{}{}, "title": struct{}{}}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
			}
			if _, found := validVariables[varName]; !found && !strings.HasPrefix(varName, "md_") {
				return nil, fmt.Errorf("variable %v is not supported. Valid variables are %v and md_<key>", varName, validVariables)
			}
		}
	}
	return expr, nil
}

func CheckDisableServices(layer *Layer, service string) bool {
	if len(layer.DisableServices) > 0 {
		if layer.DisableServicesMap == nil {
			layer.DisableServicesMap = make(map[string]bool)
			for _, srv := range layer.DisableServices {
				srv = strings.ToLower(strings.TrimSpace(srv))
				layer.DisableServicesMap[srv] = true
			}
		}

		if _, found := layer.DisableServicesMap[service]; found {
			return true
		}
	}

	return false
}

// IsLayerWCSSupported is the WCS-support predicate shared by the
// layer stores: the layer must be fully described (name, pixel size,
// native extent), must not opt out via disable_services, and must
// pass the optional filter expression.
func IsLayerWCSSupported(layer *Layer, filter *goeval.EvaluableExpression) bool {
	if layer == nil || len(layer.Name) == 0 {
		return false
	}
	if layer.XSize <= 0 || layer.YSize <= 0 || len(layer.Extent) != 4 {
		return false
	}
	if CheckDisableServices(layer, "wcs") {
		return false
	}

	if filter != nil {
		eval, err := filter.Evaluate(layerFilterParams(layer, filter))
		if err != nil {
			log.Printf("layer filter evaluation error for '%s': %v", layer.Name, err)
			return false
		}
		supported, ok := eval.(bool)
		if !ok {
			log.Printf("layer filter for '%s' did not evaluate to a boolean", layer.Name)
			return false
		}
		return supported
	}

	return true
}

func layerFilterParams(layer *Layer, filter *goeval.EvaluableExpression) map[string]interface{} {
	params := map[string]interface{}{
		"name":       layer.Name,
		"namespace":  layer.NameSpace,
		"projection": layer.Projection,
		"title":      layer.Title,
	}
	for _, token := range filter.Tokens() {
		if token.Kind == goeval.VARIABLE {
			if varName, ok := token.Value.(string); ok && strings.HasPrefix(varName, "md_") {
				params[varName] = OWSLookupMetadata(layer.Metadata, varName[len("md_"):])
			}
		}
	}
	return params
}

// ConfigLayerStore serves layers straight out of the loaded config.
type ConfigLayerStore struct {
	conf   *Config
	filter *goeval.EvaluableExpression
}

func NewConfigLayerStore(conf *Config) (*ConfigLayerStore, error) {
	filter, err := ParseLayerFilterExpression(conf.ServiceConfig.WCSLayerFilter)
	if err != nil {
		return nil, fmt.Errorf("invalid wcs_layer_filter: %v", err)
	}
	return &ConfigLayerStore{conf: conf, filter: filter}, nil
}

func (s *ConfigLayerStore) Layers() ([]*Layer, error) {
	layers := make([]*Layer, len(s.conf.Layers))
	for i := range s.conf.Layers {
		layers[i] = &s.conf.Layers[i]
	}
	return layers, nil
}

func (s *ConfigLayerStore) LayerByName(name string) (*Layer, error) {
	for i := range s.conf.Layers {
		if s.conf.Layers[i].Name == name {
			return &s.conf.Layers[i], nil
		}
	}
	return nil, fmt.Errorf("%s not found in config Layers", name)
}

func (s *ConfigLayerStore) IsWCSSupported(layer *Layer) bool {
	return IsLayerWCSSupported(layer, s.filter)
}
