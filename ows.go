package main

/* ows is a web server implementing the WCS 1.1 protocol to serve
   geospatial coverages. This server is intended to be consumed
   directly by users and exposes its catalogue through the
   GetCapabilities document. Configuration of the server is specified
   in per-namespace config.json or config.yaml files where features
   such as coverages or output formats are defined. */

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	"github.com/nci/wcs11/metrics"
	"github.com/nci/wcs11/utils"
)

// Global variable to hold the values specified
// on the config documents.
var configMap map[string]*utils.Config

var (
	port            = flag.Int("p", 8080, "Server listening port.")
	serverDataDir   = flag.String("data_dir", utils.DataDir, "Server data directory.")
	serverConfigDir = flag.String("conf_dir", utils.EtcDir, "Server config directory.")
	serverLogDir    = flag.String("log_dir", "", "Server log directory.")
	validateConfig  = flag.Bool("check_conf", false, "Validate server config files.")
	dumpConfig      = flag.Bool("dump_conf", false, "Dump server config files.")
	verbose         = flag.Bool("v", false, "Verbose mode for more server outputs.")
)

var reWCSMap map[string]*regexp.Regexp

var (
	Error *log.Logger
	Info  *log.Logger
)

var metricsLogger metrics.Logger

// Connection-holding collaborators are shared across requests and
// survive config reloads keyed by their endpoint.
var (
	pgStores  sync.Map
	docCaches sync.Map
)

// init initialises the Error logger, checks
// required files are in place and sets the Config structs.
// This is the first function to be called in main.
func init() {
	Error = log.New(os.Stderr, "OWS: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "OWS: ", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Parse()

	utils.DataDir = *serverDataDir
	utils.EtcDir = *serverConfigDir

	filePaths := []string{
		utils.DataDir + "/templates/WCS_ExceptionReport.tpl"}

	for _, filePath := range filePaths {
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			panic(err)
		}
	}

	utils.LoadExceptionTemplates(utils.DataDir + "/templates")

	confMap, err := utils.LoadAllConfigFiles(utils.EtcDir, *verbose)
	if err != nil {
		Error.Printf("Error in loading config files: %v\n", err)
		panic(err)
	}

	if *validateConfig {
		os.Exit(0)
	}

	if *dumpConfig {
		configJson, err := utils.DumpConfig(confMap)
		if err != nil {
			Error.Printf("Error in dumping configs: %v\n", err)
		} else {
			log.Print(configJson)
		}
		os.Exit(0)
	}

	configMap = confMap

	utils.WatchConfig(Info, Error, &configMap, *verbose)

	reWCSMap = utils.CompileWCSRegexMap()

	if len(*serverLogDir) > 0 {
		if *serverLogDir == "-" {
			metricsLogger = metrics.NewStdoutLogger()
		} else {
			maxLogFileSize := int64(0)
			if val, ok := os.LookupEnv("OWS_MAX_LOG_FILE_SIZE"); ok {
				valInt, e := strconv.ParseInt(val, 10, 64)
				if e == nil {
					maxLogFileSize = valInt
				} else {
					Error.Printf("invalid OWS_MAX_LOG_FILE_SIZE: %v", e)
				}
			}

			maxLogFiles := -1
			if val, ok := os.LookupEnv("OWS_MAX_LOG_FILES"); ok {
				valInt, e := strconv.ParseInt(val, 10, 32)
				if e == nil {
					maxLogFiles = int(valInt)
				} else {
					Error.Printf("invalid OWS_MAX_LOG_FILES: %v", e)
				}
			}

			metricsLogger = metrics.NewFileLogger(*serverLogDir, maxLogFileSize, maxLogFiles, *verbose)
		}
	}
}

func getLayerStore(conf *utils.Config) (utils.LayerStore, error) {
	dsn := conf.ServiceConfig.LayerDB
	if len(dsn) == 0 {
		return utils.NewConfigLayerStore(conf)
	}

	key := dsn + "|" + conf.ServiceConfig.NameSpace
	if store, ok := pgStores.Load(key); ok {
		return store.(utils.LayerStore), nil
	}

	store, err := utils.NewPGLayerStore(conf)
	if err != nil {
		return nil, err
	}
	actual, loaded := pgStores.LoadOrStore(key, store)
	if loaded {
		store.Close()
	}
	return actual.(utils.LayerStore), nil
}

func getDocCache(conf *utils.Config) *utils.DocCache {
	uri := conf.ServiceConfig.MemcacheURI
	if len(uri) == 0 {
		return nil
	}
	if cache, ok := docCaches.Load(uri); ok {
		return cache.(*utils.DocCache)
	}
	actual, _ := docCaches.LoadOrStore(uri, utils.NewDocCache(uri))
	return actual.(*utils.DocCache)
}

// serveWCSDocument delivers a built capabilities or description
// document, going through the document cache when one is configured.
func serveWCSDocument(conf *utils.Config, version string, r *http.Request, w http.ResponseWriter,
	metricsCollector *metrics.MetricsCollector,
	build func() (*utils.XMLDoc, error)) {

	cache := getDocCache(conf)
	reqURI := r.URL.RequestURI()

	if cached, ok := cache.Get(reqURI); ok {
		metricsCollector.Info.WCS.CacheHit = true
		metricsCollector.Info.WCS.DocBytes = len(cached)
		w.Header().Set("Content-Type", "text/xml; charset=ISO-8859-1")
		w.Write(cached)
		return
	}

	doc, err := build()
	if err != nil {
		exc := utils.AsWCSException(err)
		metricsCollector.Info.HTTPStatus = exc.Status
		utils.WriteWCSException(w, exc, version)
		return
	}

	buf := utils.GetXMLBuffer()
	defer utils.PutXMLBuffer(buf)
	doc.WriteISO88591(buf)

	metricsCollector.Info.WCS.DocBytes = buf.Len()
	w.Header().Set("Content-Type", "text/xml; charset=ISO-8859-1")
	w.Write(buf.Bytes())

	// the pooled buffer is recycled, the cache needs its own copy
	cache.Put(reqURI, append([]byte(nil), buf.Bytes()...))
}

func serveWCS(params utils.WCSParams, conf *utils.Config, r *http.Request, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {

	if params.Request == nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, "Malformed WCS, a Request field needs to be specified", 400)
		return
	}

	version := utils.NegotiateWCSVersion(params)
	metricsCollector.Info.WCS.Operation = *params.Request
	metricsCollector.Info.WCS.Version = version

	if params.Version != nil && !utils.CheckWCSVersion(*params.Version) {
		metricsCollector.Info.HTTPStatus = 400
		utils.WriteWCSException(w, utils.InvalidParameterValue("version",
			fmt.Sprintf("This server can only accept WCS requests compliant with version 1.1.0 and 1.1.1: %s", r.URL.String())), version)
		return
	}

	store, err := getLayerStore(conf)
	if err != nil {
		Error.Printf("layer store error: %v", err)
		metricsCollector.Info.HTTPStatus = 500
		utils.WriteWCSException(w, err, version)
		return
	}
	resolver := utils.ConfigMetadataResolver{}

	switch *params.Request {
	case "GetCapabilities":
		serveWCSDocument(conf, version, r, w, metricsCollector, func() (*utils.XMLDoc, error) {
			return utils.BuildCapabilities(conf, store, resolver, version, r)
		})

	case "DescribeCoverage":
		metricsCollector.Info.WCS.Coverages = params.Coverages
		serveWCSDocument(conf, version, r, w, metricsCollector, func() (*utils.XMLDoc, error) {
			return utils.BuildDescribeCoverage(conf, store, resolver, version, params.Coverages)
		})

	case "GetCoverage":
		serveWCSGetCoverage(params, conf, store, resolver, version, r, w, metricsCollector)

	default:
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("%s not recognised.", *params.Request), 400)
	}
}

func serveWCSGetCoverage(params utils.WCSParams, conf *utils.Config, store utils.LayerStore, resolver utils.CoverageMetadataResolver, version string, r *http.Request, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {

	fail := func(exc *utils.WCSException) {
		metricsCollector.Info.HTTPStatus = exc.Status
		utils.WriteWCSException(w, exc, version)
	}

	if len(params.Coverages) == 0 {
		fail(utils.MissingParameterValue("identifier"))
		return
	}

	coverages := utils.NormaliseCoverages(params.Coverages)
	metricsCollector.Info.WCS.Coverages = coverages
	if len(coverages) != 1 {
		fail(utils.InvalidParameterValue("identifier", "GetCoverage takes exactly one coverage identifier"))
		return
	}

	layer, err := store.LayerByName(coverages[0])
	if err != nil || !store.IsWCSSupported(layer) {
		fail(utils.CoverageNotDefined(coverages[0]))
		return
	}

	cm, err := resolver.GetCoverageMetadata(conf, layer)
	if err != nil {
		fail(utils.AsWCSException(err))
		return
	}

	if params.Format == nil {
		fail(utils.MissingParameterValue("format"))
		return
	}
	format := utils.GetOutputFormat(conf, *params.Format)
	if format == nil {
		fail(utils.InvalidParameterValue("format", fmt.Sprintf("Unrecognised output format: %s", *params.Format)))
		return
	}

	advertised := false
	for _, mime := range utils.GetWCSFormatsList(conf, layer) {
		if strings.EqualFold(mime, format.MimeType) {
			advertised = true
			break
		}
	}
	if !advertised {
		fail(utils.InvalidParameterValue("format", fmt.Sprintf("Format %s is not offered for coverage %s", format.MimeType, layer.Name)))
		return
	}
	metricsCollector.Info.WCS.Format = format.MimeType

	width, height := cm.XSize, cm.YSize
	if params.Width != nil && params.Height != nil {
		width, height = *params.Width, *params.Height
	}
	if width <= 0 || height <= 0 {
		fail(utils.InvalidParameterValue("width", "Requested raster size is empty"))
		return
	}

	bbox := cm.Extent
	if len(params.BBox) == 4 {
		bbox = params.BBox
	}

	renderer := &utils.NoDataRenderer{NoData: 0xFF}
	rs, err := renderer.Render(layer, cm, width, height, bbox)
	if err != nil {
		fail(utils.AsWCSException(err))
		return
	}

	encoder, err := utils.NewCoverageEncoder(format, rs)
	if err != nil {
		fail(utils.AsWCSException(err))
		return
	}

	// From here on the multipart headers go out first; encoder
	// failures are reported in-band inside the payload part.
	if err = utils.WCSReturnCoverage(w, format, version, encoder); err != nil {
		Error.Printf("GetCoverage encoding error for '%s': %v", layer.Name, err)
	}
}

// generalHandler handles every request received on /ows
func generalHandler(conf *utils.Config, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	if *verbose {
		Info.Printf("%s\n", r.URL.String())
	}

	metricsCollector := metrics.NewMetricsCollector(metricsLogger)
	defer metricsCollector.Log()

	t0 := time.Now()
	metricsCollector.Info.ReqTime = t0.Format(utils.ISOFormat)
	defer func() { metricsCollector.Info.ReqDuration = time.Since(t0) }()

	reqUrl, e := url.QueryUnescape(r.URL.String())
	if e == nil {
		metricsCollector.Info.URL.RawURL = reqUrl
	} else {
		metricsCollector.Info.URL.RawURL = r.URL.String()
	}

	metricsCollector.Info.RemoteAddr = utils.ParseRemoteAddr(r)
	metricsCollector.Info.HTTPStatus = 200

	var query map[string][]string
	var err error
	switch r.Method {
	case "POST":
		body, e := ioutil.ReadAll(r.Body)
		if e != nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Error reading POST payload: %s", e), 400)
			return
		}
		query, err = utils.ParseQuery(string(body))
	case "GET":
		query, err = utils.ParseQuery(r.URL.RawQuery)
	}
	if err != nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("Failed to parse query: %v", err), 400)
		return
	}

	if _, fOK := query["service"]; !fOK {
		canInferService := false
		if request, hasReq := query["request"]; hasReq {
			reqService := map[string]string{
				"DescribeCoverage": "WCS",
				"GetCoverage":      "WCS",
			}
			if service, found := reqService[request[0]]; found {
				query["service"] = []string{service}
				canInferService = true
			}
		}

		if !canInferService {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, "Not a OWS request. Request does not contain a 'service' parameter.", 400)
			return
		}
	}

	switch query["service"][0] {
	case "WCS":
		params, err := utils.WCSParamsChecker(query, reWCSMap)
		if err != nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Wrong WCS parameters on URL: %s", err), 400)
			return
		}
		serveWCS(params, conf, r, w, metricsCollector)
	default:
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("Not a valid OWS request. URL %s does not contain a valid 'service' parameter.", r.URL.String()), 400)
		return
	}
}

func owsHandler(w http.ResponseWriter, r *http.Request) {
	namespace := "."
	if len(r.URL.Path) > len("/ows/") {
		namespace = r.URL.Path[len("/ows/"):]
	}
	config, ok := configMap[namespace]
	if !ok {
		Info.Printf("Invalid dataset namespace: %v for url: %v\n", namespace, r.URL.Path)
		http.Error(w, fmt.Sprintf("Invalid dataset namespace: %v\n", namespace), 404)
		return
	}
	generalHandler(config.Copy(r), w, r)
}

func fileHandler(w http.ResponseWriter, r *http.Request) {
	upath := r.URL.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
		r.URL.Path = upath
	}
	upath = path.Clean(upath)
	upath = filepath.Join(utils.DataDir+"/static", upath)

	if *verbose {
		Info.Printf("%s -> %s\n", r.URL.String(), upath)
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	http.ServeFile(w, r, upath)
}

func main() {
	http.HandleFunc("/", fileHandler)
	http.HandleFunc("/ows", owsHandler)
	http.HandleFunc("/ows/", owsHandler)

	listener, err := reuseport.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", *port))
	if err != nil {
		Error.Fatalf("failed to listen on port %d: %v", *port, err)
	}

	Info.Printf("WCS server is ready")
	log.Fatal(http.Serve(listener, nil))
}
