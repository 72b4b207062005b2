// Command surface-borders imports labelled surfaces into the surface store
// and prints the label boundaries of one (subject, layer) as JSON.
//
//	surface-borders -import sub-01_inner.yaml
//	surface-borders -list
//	surface-borders -subject sub-01 -layer inner -html borders.html
//	surface-borders -subject sub-01 -layer inner -unfolded -png borders.png
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/surface.report/internal/config"
	"github.com/banshee-data/surface.report/internal/surface/bordercache"
	"github.com/banshee-data/surface.report/internal/surface/borders"
	"github.com/banshee-data/surface.report/internal/surface/bundle"
	"github.com/banshee-data/surface.report/internal/surface/mesh"
	"github.com/banshee-data/surface.report/internal/surface/preview"
	"github.com/banshee-data/surface.report/internal/surface/storage/sqlite"
	"github.com/banshee-data/surface.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to viewer config (.json, .yaml or .yml)")
	dbPath      = flag.String("db", "", "Path to sqlite surface store (overrides config db_path)")
	importPath  = flag.String("import", "", "Surface bundle to import before querying")
	listOnly    = flag.Bool("list", false, "List stored surfaces and exit")
	subject     = flag.String("subject", "", "Subject to extract borders for")
	layer       = flag.String("layer", "", "Layer to extract borders for")
	unfolded    = flag.Bool("unfolded", false, "Use the canonical unfolded surface's borders")
	htmlPath    = flag.String("html", "", "Write an interactive 3D preview to this file")
	pngPath     = flag.String("png", "", "Write a projected PNG preview to this file")
	pngPlane    = flag.String("png-plane", "xy", "Projection plane for -png (xy, xz or yz)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options is the parsed command line.
type options struct {
	configPath string
	dbPath     string
	importPath string
	list       bool
	subject    string
	layer      string
	view       bordercache.View
	htmlPath   string
	pngPath    string
	pngPlane   string
}

func optionsFromFlags() options {
	opts := options{
		configPath: *configPath,
		dbPath:     *dbPath,
		importPath: *importPath,
		list:       *listOnly,
		subject:    *subject,
		layer:      *layer,
		htmlPath:   *htmlPath,
		pngPath:    *pngPath,
		pngPlane:   *pngPlane,
	}
	if *unfolded {
		opts.view = bordercache.ViewUnfolded
	}
	return opts
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("surface-borders", version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, optionsFromFlags(), os.Stdout); err != nil {
		log.Fatalf("surface-borders: %v", err)
	}
}

func loadConfig(path string) (*config.ViewerConfig, error) {
	if path == "" {
		return config.EmptyViewerConfig(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	path := cfg.GetDBPath()
	if opts.dbPath != "" {
		path = opts.dbPath
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.importPath != "" {
		sf, err := bundle.Load(opts.importPath)
		if err != nil {
			return err
		}
		id, err := store.InsertSurface(ctx, sf)
		if err != nil {
			return err
		}
		log.Printf("imported %s as %s (%d vertices, %d faces)", sf.Key, id, sf.Mesh.NumVertices(), sf.Mesh.NumFaces())
	}

	if opts.list {
		return listSurfaces(ctx, store, stdout)
	}

	if opts.subject == "" && opts.layer == "" {
		if opts.importPath != "" {
			return nil
		}
		return fmt.Errorf("-subject and -layer are required unless -list or -import is given")
	}

	ccfg := bordercache.Config{
		CanonicalKey: cfg.CanonicalKey(),
		Workers:      cfg.GetExtractWorkers(),
	}
	if cfg.GetPersistBorders() {
		ccfg.Snapshots = store
	}
	cache := bordercache.New(store, ccfg)
	defer cache.Close()

	cs, err := cache.Borders(ctx, opts.subject, opts.layer, opts.view)
	if err != nil {
		return err
	}
	key := cache.Resolve(opts.subject, opts.layer, opts.view)
	log.Printf("%s view=%s: %d labels, %d boundary points", key, opts.view, len(cs), borders.TotalPoints(cs))

	if err := writePreviews(opts, key, cs); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cs)
}

func listSurfaces(ctx context.Context, store *sqlite.Store, w io.Writer) error {
	infos, err := store.ListSurfaces(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d vertices\t%d faces\t%d labels\t%s\n",
			info.Key, info.VertexCount, info.FaceCount, info.LabelCount, info.Fingerprint)
	}
	return nil
}

func writePreviews(opts options, key mesh.Key, cs []borders.Collection) error {
	if opts.htmlPath != "" {
		if err := writeFile(opts.htmlPath, func(w io.Writer) error {
			return preview.WriteHTML(w, key, cs)
		}); err != nil {
			return err
		}
		log.Printf("wrote %s", opts.htmlPath)
	}
	if opts.pngPath != "" {
		plane, err := preview.ParsePlane(opts.pngPlane)
		if err != nil {
			return err
		}
		if err := writeFile(opts.pngPath, func(w io.Writer) error {
			return preview.WritePNG(w, key, cs, plane)
		}); err != nil {
			return err
		}
		log.Printf("wrote %s", opts.pngPath)
	}
	return nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
