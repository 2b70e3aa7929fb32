package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/boom-astro/babamul/internal/alert"
	"github.com/boom-astro/babamul/internal/api"
	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/photometry"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: -%s is required", domain.ErrInvalidQuery, name)
	}
	return nil
}

func runSignup(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("signup")
	email := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}
	resp, err := client.Signup(ctx, *email)
	if err != nil {
		return err
	}
	return writeJSON(out, resp)
}

func runActivate(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("activate")
	email := fs.String("email", "", "Account email")
	code := fs.String("code", "", "Activation code from the signup email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}
	if err := required("code", *code); err != nil {
		return err
	}
	resp, err := client.Activate(ctx, *email, *code)
	if err != nil {
		return err
	}
	return writeJSON(out, resp)
}

func runLogin(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}
	if err := required("password", *password); err != nil {
		return err
	}
	token, err := client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "export BABAMUL_API_TOKEN=%s\n", token)
	return err
}

func runProfile(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	if err := newFlagSet("profile").Parse(args); err != nil {
		return err
	}
	profile, err := client.Profile(ctx)
	if err != nil {
		return err
	}
	return writeJSON(out, profile)
}

func runCredentials(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: credentials needs list, create or delete", domain.ErrInvalidQuery)
	}

	fs := newFlagSet("credentials " + args[0])
	name := fs.String("name", "", "Credential name (create)")
	id := fs.String("id", "", "Credential id (delete)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		creds, err := client.ListKafkaCredentials(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, creds)
	case "create":
		if err := required("name", *name); err != nil {
			return err
		}
		cred, err := client.CreateKafkaCredential(ctx, *name)
		if err != nil {
			return err
		}
		return writeJSON(out, cred)
	case "delete":
		if err := required("id", *id); err != nil {
			return err
		}
		deleted, err := client.DeleteKafkaCredential(ctx, *id)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]bool{"deleted": deleted})
	}
	return fmt.Errorf("%w: unknown credentials action %q", domain.ErrInvalidQuery, args[0])
}

func runAlerts(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("alerts")
	var survey surveyFlag
	var ra, dec, radius, startJD, endJD, minMag, maxMag, minDRB, maxDRB optFloat
	fs.Var(&survey, "survey", "Survey: ztf or lsst")
	objectID := fs.String("object-id", "", "Object id")
	fs.Var(&ra, "ra", "Cone center right ascension (deg)")
	fs.Var(&dec, "dec", "Cone center declination (deg)")
	fs.Var(&radius, "radius", "Cone radius (arcsec)")
	fs.Var(&startJD, "start-jd", "Earliest jd")
	fs.Var(&endJD, "end-jd", "Latest jd")
	fs.Var(&minMag, "min-mag", "Lower magpsf bound")
	fs.Var(&maxMag, "max-mag", "Upper magpsf bound")
	fs.Var(&minDRB, "min-drb", "Lower drb bound")
	fs.Var(&maxDRB, "max-drb", "Upper drb bound")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := survey.get()
	if err != nil {
		return err
	}

	q := api.AlertQuery{
		ObjectID:     *objectID,
		RA:           ra.v,
		Dec:          dec.v,
		RadiusArcsec: radius.v,
		StartJD:      startJD.v,
		EndJD:        endJD.v,
		MinMagPSF:    minMag.v,
		MaxMagPSF:    maxMag.v,
		MinDRB:       minDRB.v,
		MaxDRB:       maxDRB.v,
	}
	alerts, err := client.GetAlerts(ctx, s, q)
	if err != nil {
		return err
	}
	return writeJSON(out, summaries(alerts))
}

func runCone(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("cone")
	var survey surveyFlag
	fs.Var(&survey, "survey", "Survey: ztf or lsst")
	ra := fs.Float64("ra", 0, "Right ascension (deg)")
	dec := fs.Float64("dec", 0, "Declination (deg)")
	radius := fs.Float64("radius", 5, "Radius (arcsec)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := survey.get()
	if err != nil {
		return err
	}
	alerts, err := client.ConeSearch(ctx, s, *ra, *dec, *radius, api.AlertQuery{})
	if err != nil {
		return err
	}
	return writeJSON(out, summaries(alerts))
}

// objectView is the printed form of an object.
type objectView struct {
	Alert        alert.Summary        `json:"alert"`
	Photometry   []domain.Photometry  `json:"photometry"`
	CrossMatches *domain.CrossMatches `json:"cross_matches,omitempty"`
}

func runObject(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("object")
	var survey surveyFlag
	fs.Var(&survey, "survey", "Survey: ztf or lsst")
	id := fs.String("id", "", "Object id")
	withMatches := fs.Bool("cross-matches", false, "Include archival cross-matches")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := survey.get()
	if err != nil {
		return err
	}
	if err := required("id", *id); err != nil {
		return err
	}

	obj, err := client.GetObject(ctx, s, *id)
	if err != nil {
		return err
	}
	lc, err := obj.Photometry(ctx, true)
	if err != nil {
		return err
	}
	view := objectView{Alert: obj.Summary(), Photometry: lc}
	if *withMatches {
		if view.CrossMatches, err = obj.CrossMatches(ctx); err != nil {
			return err
		}
	}
	return writeJSON(out, view)
}

func runPhotometry(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("photometry")
	var survey surveyFlag
	fs.Var(&survey, "survey", "Survey: ztf or lsst")
	id := fs.String("id", "", "Object id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := survey.get()
	if err != nil {
		return err
	}
	if err := required("id", *id); err != nil {
		return err
	}
	h, err := client.GetPhotometry(ctx, s, *id)
	if err != nil {
		return err
	}
	if s == domain.SurveyLSST {
		h.NonDetections = nil
	}
	return writeJSON(out, photometry.Combine(h, true))
}

func runCutouts(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("cutouts")
	var survey surveyFlag
	fs.Var(&survey, "survey", "Survey: ztf or lsst")
	candid := fs.Int64("candid", 0, "Alert candid")
	dir := fs.String("out", ".", "Directory the stamps are written to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := survey.get()
	if err != nil {
		return err
	}
	if *candid == 0 {
		return fmt.Errorf("%w: -candid is required", domain.ErrInvalidQuery)
	}

	cut, err := client.GetCutouts(ctx, s, *candid)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, stamp := range []struct {
		kind string
		data []byte
	}{
		{"science", cut.Science},
		{"template", cut.Template},
		{"difference", cut.Difference},
	} {
		if stamp.data == nil {
			continue
		}
		path := filepath.Join(*dir, strconv.FormatInt(*candid, 10)+"_"+stamp.kind+".fits")
		if err := os.WriteFile(path, stamp.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(out, path)
	}
	return nil
}

func runSearch(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("search")
	id := fs.String("id", "", "Object id or prefix")
	limit := fs.Int("limit", api.DefaultSearchLimit, "Maximum results (1-100)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required("id", *id); err != nil {
		return err
	}
	results, err := client.SearchObjects(ctx, *id, *limit)
	if err != nil {
		return err
	}
	return writeJSON(out, results)
}

func runCrossMatch(ctx context.Context, client *api.Client, args []string, out io.Writer) error {
	fs := newFlagSet("crossmatch")
	var survey surveyFlag
	fs.Var(&survey, "survey", "Survey: ztf or lsst")
	ids := fs.String("ids", "", "Comma-separated object ids")
	concurrency := fs.Int("concurrency", bulkConfig.Concurrency, "Parallel requests (1-12)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := survey.get()
	if err != nil {
		return err
	}
	if err := required("ids", *ids); err != nil {
		return err
	}
	matches, err := client.GetCrossMatchesBulk(ctx, s, strings.Split(*ids, ","), *concurrency)
	if err != nil {
		return err
	}
	return writeJSON(out, matches)
}

func summaries(alerts []alert.Alert) []alert.Summary {
	out := make([]alert.Summary, len(alerts))
	for i, a := range alerts {
		out[i] = a.Summary()
	}
	return out
}
