package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/dms"
	"github.com/bodgit/dms/sign"
	"github.com/urfave/cli/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const defaultDB = "dms.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func openCatalog(c *cli.Context) (*dms.Catalog, error) {
	return dms.NewCatalog(c.String("db"), newLogger(c))
}

type encodeFunc func(io.Writer, dms.Frame) error

var encoders = map[string]encodeFunc{
	".png": dms.EncodePNG,
	".bmp": dms.EncodeBMP,
}

func create(file string, fn func(io.Writer) error) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}
	return f.Close()
}

// writeFrames writes frames to file, choosing the format by extension. A
// GIF holds the whole message, other formats get one file per frame when
// there is more than one.
func writeFrames(file string, frames []dms.Frame, config *sign.Config) error {
	ext := strings.ToLower(filepath.Ext(file))
	if ext == ".gif" {
		return create(file, func(w io.Writer) error {
			return dms.EncodeGIF(w, frames, config)
		})
	}

	encode, ok := encoders[ext]
	if !ok {
		return fmt.Errorf("unsupported output format \"%s\"", ext)
	}

	if len(frames) == 1 {
		return create(file, func(w io.Writer) error {
			return encode(w, frames[0])
		})
	}

	base := strings.TrimSuffix(file, filepath.Ext(file))
	for i, frame := range frames {
		name := fmt.Sprintf("%s-%d-%s%s", base, frame.Page+1, frame.Phase, ext)
		if err := create(name, func(w io.Writer) error {
			return encode(w, frames[i])
		}); err != nil {
			return err
		}
	}
	return nil
}

var charsets = map[string]*charmap.Charmap{
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
}

// decoder returns the decoder for a message file charset, nil means the
// file is already UTF-8.
func decoder(name string) (*encoding.Decoder, error) {
	name = strings.ToLower(name)
	if name == "" || name == "utf-8" {
		return nil, nil
	}
	cm, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("unsupported charset \"%s\"", name)
	}
	return cm.NewDecoder(), nil
}

func readLines(file string, d *encoding.Decoder) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if d != nil {
		r = d.Reader(f)
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func main() {
	app := cli.NewApp()

	app.Name = "dms"
	app.Usage = "Dynamic message sign MULTI renderer"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"DMS_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "import-signs",
			Usage:       "Import sign configurations",
			Description: "Replaces every stored sign with those in a JSON file mapping names to configurations.",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				catalog, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				if err := catalog.ImportSigns(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "import-font",
			Usage:       "Import a font",
			Description: "Reads a BDF font or a font in the binary font format.",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:     "number",
					Aliases:  []string{"n"},
					Usage:    "font number, 1 to 255",
					Required: true,
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				number := c.Uint("number")
				if number < 1 || number > 255 {
					return cli.Exit("font number must be between 1 and 255", 1)
				}

				catalog, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				if err := catalog.ImportFont(c.Args().First(), uint8(number)); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "import-graphic",
			Usage:       "Import a graphic",
			Description: "Reads a PNG, GIF or JPEG image or a graphic in the binary graphic format.",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:     "number",
					Aliases:  []string{"n"},
					Usage:    "graphic number, 1 to 255",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "scheme",
					Aliases: []string{"s"},
					Value:   sign.Color24Bit.String(),
					Usage:   "color scheme of converted images",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				number := c.Uint("number")
				if number < 1 || number > 255 {
					return cli.Exit("graphic number must be between 1 and 255", 1)
				}
				scheme, err := sign.ParseColorScheme(c.String("scheme"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				catalog, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				if err := catalog.ImportGraphic(c.Args().First(), uint8(number), scheme); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "fonts",
			Usage: "List stored signs, fonts and graphics",
			Action: func(c *cli.Context) error {
				catalog, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				signs, err := catalog.Signs()
				if err != nil {
					return cli.Exit(err, 1)
				}
				for _, name := range signs {
					fmt.Printf("sign\t%s\n", name)
				}

				fonts, err := catalog.Fonts()
				if err != nil {
					return cli.Exit(err, 1)
				}
				for _, e := range fonts {
					fmt.Printf("font\t%d\t%04X\t%s\n", e.Number, e.VersionID, e.Name)
				}

				graphics, err := catalog.Graphics()
				if err != nil {
					return cli.Exit(err, 1)
				}
				for _, e := range graphics {
					fmt.Printf("graphic\t%d\t%04X\t%s\n", e.Number, e.VersionID, e.Name)
				}

				return nil
			},
		},
		{
			Name:        "render",
			Usage:       "Render a MULTI message",
			Description: "Renders a message for a stored sign. The output format follows the file extension: .gif, .png or .bmp.",
			ArgsUsage:   "MULTI",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "sign",
					Aliases:  []string{"s"},
					Usage:    "name of the sign",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   "message.gif",
					Usage:   "output file",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				catalog, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				r, err := catalog.Renderer(c.String("sign"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				frames, err := r.Render(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := writeFrames(c.String("output"), frames, r.Config()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "batch",
			Usage:       "Render a file of MULTI messages",
			Description: "Renders one message per line into numbered GIF files.",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "sign",
					Aliases:  []string{"s"},
					Usage:    "name of the sign",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "directory",
					Aliases: []string{"d"},
					Value:   cwd,
					Usage:   "output directory",
				},
				&cli.StringFlag{
					Name:    "charset",
					Aliases: []string{"c"},
					Value:   "utf-8",
					Usage:   "character set of FILE: utf-8, iso-8859-1, iso-8859-15 or windows-1252",
				},
				&cli.IntFlag{
					Name:    "workers",
					Aliases: []string{"w"},
					Value:   dms.Workers,
					Usage:   "number of concurrent renders",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				catalog, err := dms.NewCatalog(c.String("db"), logger)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				r, err := catalog.Renderer(c.String("sign"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				d, err := decoder(c.String("charset"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				messages, err := readLines(c.Args().First(), d)
				if err != nil {
					return cli.Exit(err, 1)
				}

				results, err := r.RenderAll(context.Background(), messages, c.Int("workers"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				failed := 0
				for _, result := range results {
					if result.Err != nil {
						fmt.Fprintf(os.Stderr, "%d: %q: %v\n", result.Index+1, result.MULTI, result.Err)
						failed++
						continue
					}
					file := filepath.Join(c.String("directory"), fmt.Sprintf("%04d.gif", result.Index+1))
					if err := writeFrames(file, result.Frames, r.Config()); err != nil {
						return cli.Exit(err, 1)
					}
					logger.Printf("Wrote \"%s\"\n", file)
				}

				if failed > 0 {
					return cli.Exit(fmt.Sprintf("%d of %d messages failed", failed, len(results)), 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
