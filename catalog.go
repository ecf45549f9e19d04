package dms

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/dms/font"
	"github.com/bodgit/dms/graphic"
	"github.com/bodgit/dms/sign"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog stores sign configurations, fonts and graphics in an SQLite
// database.
type Catalog struct {
	db     *sql.DB
	logger *log.Logger
}

// Entry describes a stored font or graphic.
type Entry struct {
	Number    int
	Name      string
	VersionID uint16
}

// NewCatalog opens, creating if necessary, the catalog stored in file.
func NewCatalog(file string, logger *log.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sign (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, config BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS font (number INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL, version_id INTEGER NOT NULL, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS graphic (number INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL, version_id INTEGER NOT NULL, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Catalog{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// ImportSigns replaces every stored sign configuration with those in the
// JSON file.
func (c *Catalog) ImportSigns(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	configs, err := sign.LoadConfigs(f)
	if err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM sign"); err != nil {
		return err
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := json.Marshal(configs[name])
		if err != nil {
			return err
		}
		if _, err = tx.Exec("INSERT INTO sign (name, config) VALUES (?, ?)", name, b); err != nil {
			return err
		}
		c.logger.Printf("Imported sign \"%s\"\n", name)
	}

	return tx.Commit()
}

// Sign returns the named sign configuration.
func (c *Catalog) Sign(name string) (*sign.Config, error) {
	var b []byte
	switch err := c.db.QueryRow("SELECT config FROM sign WHERE name = ?", name).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, fmt.Errorf("dms: no sign named \"%s\": %w", name, sign.ErrInvalidConfiguration)
	case nil:
		config := new(sign.Config)
		if err := json.Unmarshal(b, config); err != nil {
			return nil, err
		}
		config.Name = name
		if err := config.Validate(); err != nil {
			return nil, err
		}
		return config, nil
	default:
		return nil, err
	}
}

// Signs returns the names of every stored sign.
func (c *Catalog) Signs() ([]string, error) {
	rows, err := c.db.Query("SELECT name FROM sign ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// AddFont stores f, replacing any font with the same number.
func (c *Catalog) AddFont(f *font.Font) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := c.db.Exec("INSERT OR REPLACE INTO font (number, name, version_id, data) VALUES (?, ?, ?, ?)", f.Number, f.Name, f.VersionID(), b); err != nil {
		return err
	}
	c.logger.Printf("Stored font %d \"%s\" with version ID %04X\n", f.Number, f.Name, f.VersionID())
	return nil
}

// ImportFont reads a font file and stores it as number. BDF files are
// recognised by their extension, anything else must be in the binary
// font format.
func (c *Catalog) ImportFont(file string, number uint8) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var f *font.Font
	switch strings.ToLower(filepath.Ext(file)) {
	case ".bdf":
		if f, err = font.ParseBDF(b, number); err != nil {
			return err
		}
	default:
		f = new(font.Font)
		if err := f.UnmarshalBinary(b); err != nil {
			return err
		}
		f.Number = number
	}

	return c.AddFont(f)
}

// AddGraphic stores g, replacing any graphic with the same number.
func (c *Catalog) AddGraphic(g *graphic.Graphic) error {
	b, err := g.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := c.db.Exec("INSERT OR REPLACE INTO graphic (number, name, version_id, data) VALUES (?, ?, ?, ?)", g.Number, g.Name, g.VersionID(), b); err != nil {
		return err
	}
	c.logger.Printf("Stored graphic %d \"%s\" with version ID %04X\n", g.Number, g.Name, g.VersionID())
	return nil
}

// ImportGraphic reads a graphic file and stores it as number. PNG, GIF and
// JPEG images are converted to scheme, anything else must be in the binary
// graphic format.
func (c *Catalog) ImportGraphic(file string, number uint8, scheme sign.ColorScheme) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if len(name) > graphic.MaxNameLength {
		name = name[:graphic.MaxNameLength]
	}

	var g *graphic.Graphic
	switch m, _, err := image.Decode(bytes.NewReader(b)); err {
	case nil:
		if g, err = graphic.FromImage(m, number, name, scheme); err != nil {
			return err
		}
	case image.ErrFormat:
		g = new(graphic.Graphic)
		if err := g.UnmarshalBinary(b); err != nil {
			return err
		}
		g.Number = number
	default:
		return err
	}

	return c.AddGraphic(g)
}

func (c *Catalog) entries(table string) ([]Entry, error) {
	rows, err := c.db.Query(fmt.Sprintf("SELECT number, name, version_id FROM %s ORDER BY number", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Number, &e.Name, &e.VersionID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Fonts lists the stored fonts in number order.
func (c *Catalog) Fonts() ([]Entry, error) {
	return c.entries("font")
}

// Graphics lists the stored graphics in number order.
func (c *Catalog) Graphics() ([]Entry, error) {
	return c.entries("graphic")
}

func (c *Catalog) blobs(table string) ([][]byte, error) {
	rows, err := c.db.Query(fmt.Sprintf("SELECT data FROM %s ORDER BY number", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blobs [][]byte
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		blobs = append(blobs, b)
	}
	return blobs, rows.Err()
}

// Tables loads every stored font and graphic into tables of the given
// capacities. If no fonts are stored the built-in basic font is loaded as
// font 1.
func (c *Catalog) Tables(fontCapacity, graphicCapacity int) (*font.Table, *graphic.Table, error) {
	fonts := font.NewTable(fontCapacity)
	graphics := graphic.NewTable(graphicCapacity)

	blobs, err := c.blobs("font")
	if err != nil {
		return nil, nil, err
	}
	for _, b := range blobs {
		f := new(font.Font)
		if err := f.UnmarshalBinary(b); err != nil {
			return nil, nil, err
		}
		if err := fonts.Load(f); err != nil {
			return nil, nil, err
		}
	}
	if fonts.Len() == 0 {
		c.logger.Println("No fonts stored, using built-in font")
		if err := fonts.Load(font.Basic(1)); err != nil {
			return nil, nil, err
		}
	}

	if blobs, err = c.blobs("graphic"); err != nil {
		return nil, nil, err
	}
	for _, b := range blobs {
		g := new(graphic.Graphic)
		if err := g.UnmarshalBinary(b); err != nil {
			return nil, nil, err
		}
		if err := graphics.Load(g); err != nil {
			return nil, nil, err
		}
	}

	return fonts, graphics, nil
}

// Renderer returns a Renderer for the named sign using every stored font
// and graphic.
func (c *Catalog) Renderer(name string) (*Renderer, error) {
	config, err := c.Sign(name)
	if err != nil {
		return nil, err
	}
	fonts, graphics, err := c.Tables(font.MaxFonts, graphic.MaxGraphics)
	if err != nil {
		return nil, err
	}
	return New(config, fonts, graphics, c.logger)
}
