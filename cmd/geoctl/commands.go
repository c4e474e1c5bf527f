package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/iago/geo-visibility-back/internal/classify"
	"github.com/iago/geo-visibility-back/internal/overview"
)

func newApp() *cli.Command {
	inputFlag := &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "input file, stdin when empty or -",
	}

	return &cli.Command{
		Name:  "geoctl",
		Usage: "brand visibility report tooling",
		Commands: []*cli.Command{
			{
				Name:  "classify",
				Usage: "score an answer text for brand presence",
				Flags: []cli.Flag{
					inputFlag,
					&cli.StringFlag{Name: "brands", Usage: "own brands, comma separated", Required: true},
					&cli.StringFlag{Name: "competitors", Usage: "competitor brands, comma separated"},
					&cli.StringFlag{Name: "websites", Usage: "official websites, comma separated"},
					&cli.IntFlag{Name: "threshold", Usage: "brands needed to count as a comparison", Value: classify.DefaultCompareThreshold},
				},
				Action: classifyAction,
			},
			{
				Name:   "render",
				Usage:  "flatten an AI overview JSON document into text",
				Flags:  []cli.Flag{inputFlag},
				Action: renderAction,
			},
			{
				Name:  "references",
				Usage: "extract footnote citations from an answer",
				Flags: []cli.Flag{
					inputFlag,
					&cli.BoolFlag{Name: "strip", Usage: "print the answer without citations instead"},
				},
				Action: referencesAction,
			},
		},
	}
}

type classifyResult struct {
	BrandExists     bool            `json:"brandExists"`
	BrandCompare    bool            `json:"brandCompare"`
	OfficialWebsite bool            `json:"officialWebsite"`
	References      string          `json:"references"`
	Presence        classify.Matrix `json:"presence"`
}

func classifyAction(_ context.Context, cmd *cli.Command) error {
	text, err := readInput(cmd)
	if err != nil {
		return err
	}

	own := classify.ParseList(cmd.String("brands"))
	competitors := classify.ParseList(cmd.String("competitors"))
	body := classify.StripReferences(text)

	result := classifyResult{
		BrandExists:     classify.BrandExists(body, own),
		BrandCompare:    classify.BrandCompare(body, own, competitors, int(cmd.Int("threshold"))),
		OfficialWebsite: classify.OfficialWebsiteExists(text, classify.ParseList(cmd.String("websites"))),
		References:      classify.ExtractReferences(text),
		Presence:        classify.BuildPresenceMatrix(body, own, competitors),
	}

	encoder := json.NewEncoder(cmd.Root().Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func renderAction(_ context.Context, cmd *cli.Command) error {
	raw, err := readInput(cmd)
	if err != nil {
		return err
	}

	var doc overview.Overview
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("decode overview: %w", err)
	}

	out := cmd.Root().Writer
	fmt.Fprintln(out, overview.RenderOverview(&doc))
	if refs := overview.FormatReferences(doc.References); refs != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, refs)
	}
	return nil
}

func referencesAction(_ context.Context, cmd *cli.Command) error {
	text, err := readInput(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("strip") {
		_, err = fmt.Fprintln(cmd.Root().Writer, classify.StripReferences(text))
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, classify.ExtractReferences(text))
	return err
}

func readInput(cmd *cli.Command) (string, error) {
	path := cmd.String("file")
	if path == "" || path == "-" {
		reader := cmd.Root().Reader
		if reader == nil {
			reader = os.Stdin
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
