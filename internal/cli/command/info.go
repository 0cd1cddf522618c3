package command

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/meshcache/archive"
	"github.com/hupe1980/meshcache/internal/location"
)

// InfoCommand returns the info command.
func InfoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "List the objects and properties of an archive",
		ArgsUsage: "[location]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "in",
				Aliases: []string{"i"},
				Usage:   "Archive location",
			},
		},
		Action: runInfo,
	}
}

func runInfo(c *cli.Context) error {
	ctx := c.Context

	in := c.String("in")
	if in == "" {
		in = c.Args().First()
	}
	if in == "" {
		return usageError(fmt.Errorf("info: --in is required"))
	}

	logger, err := newLogger(c.App.ErrWriter, c.String("log-level"), c.String("log-format"))
	if err != nil {
		return err
	}

	store, loc, err := location.Open(ctx, in)
	if err != nil {
		return fmt.Errorf("open %s: %w", in, err)
	}
	r, err := archive.Open(ctx, store, archive.WithLogger(logger.Logger))
	if err != nil {
		return fmt.Errorf("open %s: %w", loc, err)
	}
	defer r.Close()

	ts := r.TimeSampling()
	w := c.App.Writer
	fmt.Fprintf(w, "archive:     %s\n", loc)
	fmt.Fprintf(w, "version:     %d\n", r.Version())
	fmt.Fprintf(w, "codec:       %s\n", r.Codec())
	if app := r.Application(); app != "" {
		fmt.Fprintf(w, "application: %s\n", app)
	}
	fmt.Fprintf(w, "sampling:    start=%gs step=%gs\n", ts.Start, ts.Step)
	fmt.Fprintf(w, "objects:     %d\n\n", r.ObjectCount())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECT\tKIND\tPROPERTY\tTYPE\tSCOPE\tINTERP\tSAMPLES\tPRESENT")
	for _, o := range r.Summary() {
		if len(o.Properties) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\n", o.Path, o.Kind)
			continue
		}
		for _, p := range o.Properties {
			name := p.Name
			if p.Group != "" {
				name = p.Group + "/" + p.Name
			}
			interp := string(p.Interpretation)
			if interp == "" {
				interp = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				o.Path, o.Kind, name, p.DataType, p.Scope, interp, p.NumSamples, p.NumPresent)
		}
	}
	return tw.Flush()
}
