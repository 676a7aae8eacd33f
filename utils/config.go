package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v2"
)

var EtcDir = "."
var DataDir = "."

// string used to format Go ISO times
const ISOFormat = "2006-01-02T15:04:05.000Z"

// ServiceIdentification carries the ows:ServiceIdentification block
// published by GetCapabilities.
type ServiceIdentification struct {
	Title             string   `json:"title" yaml:"title"`
	Abstract          string   `json:"abstract" yaml:"abstract"`
	Keywords          []string `json:"keywords" yaml:"keywords"`
	Fees              string   `json:"fees" yaml:"fees"`
	AccessConstraints string   `json:"access_constraints" yaml:"access_constraints"`
}

// ServiceProvider carries the ows:ServiceProvider block.
type ServiceProvider struct {
	Name           string `json:"name" yaml:"name"`
	Site           string `json:"site" yaml:"site"`
	IndividualName string `json:"individual_name" yaml:"individual_name"`
	PositionName   string `json:"position_name" yaml:"position_name"`
	Phone          string `json:"phone" yaml:"phone"`
	Email          string `json:"email" yaml:"email"`
	City           string `json:"city" yaml:"city"`
	Country        string `json:"country" yaml:"country"`
}

type ServiceConfig struct {
	OWSHostname    string            `json:"ows_hostname" yaml:"ows_hostname"`
	OWSProtocol    string            `json:"ows_protocol" yaml:"ows_protocol"`
	OnlineResource string            `json:"online_resource" yaml:"online_resource"`
	NameSpace      string            `json:"-" yaml:"-"`
	Projection     string            `json:"projection" yaml:"projection"`
	Metadata       map[string]string `json:"metadata" yaml:"metadata"`
	LayerDB        string            `json:"layer_db" yaml:"layer_db"`
	MemcacheURI    string            `json:"memcache" yaml:"memcache"`
	WCSLayerFilter string            `json:"wcs_layer_filter" yaml:"wcs_layer_filter"`

	Identification ServiceIdentification `json:"identification" yaml:"identification"`
	Provider       ServiceProvider       `json:"provider" yaml:"provider"`
}

// OutputFormat describes one configured output encoding. Renderer
// names the rendering backend; only the raster-capable backends are
// advertised through WCS.
type OutputFormat struct {
	Name      string `json:"name" yaml:"name"`
	Renderer  string `json:"renderer" yaml:"renderer"`
	MimeType  string `json:"mime_type" yaml:"mime_type"`
	Extension string `json:"extension" yaml:"extension"`
}

// Layer contains all the details a coverage needs to be published.
type Layer struct {
	OWSHostname     string            `json:"ows_hostname" yaml:"ows_hostname"`
	NameSpace       string            `json:"-" yaml:"-"`
	Name            string            `json:"name" yaml:"name"`
	Title           string            `json:"title" yaml:"title"`
	Abstract        string            `json:"abstract" yaml:"abstract"`
	Projection      string            `json:"projection" yaml:"projection"`
	Metadata        map[string]string `json:"metadata" yaml:"metadata"`
	XSize           int               `json:"x_size" yaml:"x_size"`
	YSize           int               `json:"y_size" yaml:"y_size"`
	Extent          []float64         `json:"extent" yaml:"extent"`
	WGS84Extent     []float64         `json:"wgs84_extent" yaml:"wgs84_extent"`
	GeoTransform    []float64         `json:"geotransform" yaml:"geotransform"`
	DisableServices []string          `json:"disable_services" yaml:"disable_services"`

	DisableServicesMap map[string]bool `json:"-" yaml:"-"`
}

// Config is the struct representing the configuration of a WCS
// server namespace: the service level settings plus the list of
// published coverages and output formats.
type Config struct {
	ServiceConfig ServiceConfig  `json:"service_config" yaml:"service_config"`
	OutputFormats []OutputFormat `json:"output_formats" yaml:"output_formats"`
	Layers        []Layer        `json:"layers" yaml:"layers"`
}

// DefaultOutputFormats is used when a config file does not declare
// any output format of its own.
var DefaultOutputFormats = []OutputFormat{
	{Name: "GTiff", Renderer: "rawdata", MimeType: "image/tiff", Extension: "tif"},
	{Name: "PNG", Renderer: "agg", MimeType: "image/png", Extension: "png"},
	{Name: "JPEG", Renderer: "gd", MimeType: "image/jpeg", Extension: "jpg"},
}

var configFileNames = map[string]bool{
	"config.json": true,
	"config.yaml": true,
}

func LoadAllConfigFiles(rootDir string, verbose bool) (map[string]*Config, error) {
	configMap := make(map[string]*Config)
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && configFileNames[info.Name()] {
			relPath, _ := filepath.Rel(rootDir, filepath.Dir(path))
			if verbose {
				log.Printf("Loading config file: %s under namespace: %s\n", path, relPath)
			}

			config := &Config{}
			e := config.LoadConfigFile(path)
			if e != nil {
				return e
			}

			configMap[relPath] = config

			ns := relPath
			if relPath == "." {
				ns = ""
			}
			config.ServiceConfig.NameSpace = ns
			for i := range config.Layers {
				config.Layers[i].NameSpace = ns
			}
		}
		return nil
	})

	if err == nil && len(configMap) == 0 {
		err = fmt.Errorf("No config file found")
	}

	return configMap, err
}

// LoadConfigFile unmarshals a config.json or config.yaml document
// into the receiver and fills the derived layer fields.
func (config *Config) LoadConfigFile(configFile string) error {
	*config = Config{}
	cfg, err := ioutil.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
	}

	if strings.HasSuffix(configFile, ".yaml") {
		err = yaml.Unmarshal(cfg, config)
	} else {
		err = json.Unmarshal(cfg, config)
	}
	if err != nil {
		return fmt.Errorf("Error at parsing config document: %s. Error: %v", configFile, err)
	}

	if len(config.OutputFormats) == 0 {
		config.OutputFormats = DefaultOutputFormats
	}

	for i := range config.Layers {
		config.Layers[i].OWSHostname = config.ServiceConfig.OWSHostname
		if config.Layers[i].Metadata == nil {
			config.Layers[i].Metadata = map[string]string{}
		}
	}
	return nil
}

func DumpConfig(configs map[string]*Config) (string, error) {
	configJson, err := json.Marshal(configs)
	if err != nil {
		return "", err
	}
	return string(configJson), nil
}

// Copy returns a shallow per-request copy of the config with the
// hostname taken from the incoming request when the config does not
// pin one.
func (config *Config) Copy(r *http.Request) *Config {
	newConf := *config
	if len(strings.TrimSpace(newConf.ServiceConfig.OWSHostname)) == 0 && r != nil {
		newConf.ServiceConfig.OWSHostname = r.Host
	}
	return &newConf
}

func WatchConfig(infoLog, errLog *log.Logger, configMap *map[string]*Config, verbose bool) {
	// Catch SIGHUP to automatically reload config
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for {
			<-sighup
			infoLog.Println("Caught SIGHUP, reloading config...")
			confMap, err := LoadAllConfigFiles(EtcDir, verbose)
			if err != nil {
				errLog.Printf("Error in loading config files: %v\n", err)
				continue
			}

			for k := range *configMap {
				delete(*configMap, k)
			}

			for k := range confMap {
				(*configMap)[k] = confMap[k]
			}
		}
	}()
}

// OWSLookupMetadata resolves key through the namespaced metadata
// prefixes, most specific first: wcs_<key>, ows_<key>, then the bare
// key. An empty string means not found.
func OWSLookupMetadata(metadata map[string]string, key string) string {
	if metadata == nil {
		return ""
	}
	for _, prefix := range []string{"wcs_", "ows_", ""} {
		if value, found := metadata[prefix+key]; found {
			return value
		}
	}
	return ""
}

// GetOnlineResource resolves the externally reachable base URL of
// the service. The config may pin one; otherwise it is derived from
// the configured or requested hostname.
func GetOnlineResource(conf *Config, r *http.Request) (string, error) {
	resource := strings.TrimSpace(conf.ServiceConfig.OnlineResource)
	if len(resource) == 0 {
		host := strings.TrimSpace(conf.ServiceConfig.OWSHostname)
		if len(host) == 0 && r != nil {
			host = r.Host
		}
		if len(host) == 0 {
			return "", fmt.Errorf("no online resource or hostname configured")
		}

		protocol := conf.ServiceConfig.OWSProtocol
		if len(protocol) == 0 {
			protocol = "http"
		}

		resource = fmt.Sprintf("%s://%s/ows", protocol, host)
		if len(conf.ServiceConfig.NameSpace) > 0 {
			resource += "/" + conf.ServiceConfig.NameSpace
		}
	}

	if _, err := url.Parse(resource); err != nil {
		return "", fmt.Errorf("invalid online resource %s: %v", resource, err)
	}
	return resource, nil
}
