package pref

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/prefs"
	"github.com/ValentinKolb/dPref/lib/util"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var log = logger.GetLogger("cmd")

// Commands returns all commands operating on a single store
func Commands() []*cobra.Command {
	return []*cobra.Command{
		getCmd,
		setCmd,
		delCmd,
		listCmd,
		watchCmd,
		benchCmd,
		metricsCmd,
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// openOwner returns the owner of the store called name of the default runtime
func openOwner(name string) (*prefs.Owner, error) {
	o, err := prefs.NewOwner(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", name, err)
	}
	return o, nil
}

// currentMap reads the complete map of a store
func currentMap(ctx context.Context, o *prefs.Owner) (db.Preferences, error) {
	return util.First(ctx, o.Store().Data())
}

// parseEntry converts the command line representation of a value of kind
// into an entry. String sets are given as comma separated members.
func parseEntry(kind db.Kind, raw string) (db.Entry, error) {
	switch kind {
	case db.KindInt32:
		v, err := strconv.ParseInt(raw, 10, 32)
		return db.NewEntry(int32(v)), err
	case db.KindInt64:
		v, err := strconv.ParseInt(raw, 10, 64)
		return db.NewEntry(v), err
	case db.KindFloat32:
		v, err := strconv.ParseFloat(raw, 32)
		return db.NewEntry(float32(v)), err
	case db.KindFloat64:
		v, err := strconv.ParseFloat(raw, 64)
		return db.NewEntry(v), err
	case db.KindBool:
		v, err := strconv.ParseBool(raw)
		return db.NewEntry(v), err
	case db.KindString:
		return db.NewEntry(raw), nil
	case db.KindStringSet:
		set := db.NewStringSet()
		for _, member := range strings.Split(raw, ",") {
			if member = strings.TrimSpace(member); member != "" {
				set.Add(member)
			}
		}
		return db.NewEntry(set), nil
	default:
		return db.Entry{}, fmt.Errorf("invalid kind %s", kind)
	}
}

// setEntry writes e through the typed preference of its kind
func setEntry(ctx context.Context, o *prefs.Owner, name string, e db.Entry) (db.Preferences, error) {
	switch v := e.Value.(type) {
	case int32:
		return set(ctx, o, name, v)
	case int64:
		return set(ctx, o, name, v)
	case float32:
		return set(ctx, o, name, v)
	case float64:
		return set(ctx, o, name, v)
	case bool:
		return set(ctx, o, name, v)
	case string:
		return set(ctx, o, name, v)
	case db.StringSet:
		return set(ctx, o, name, v)
	default:
		return db.Preferences{}, fmt.Errorf("unsupported value %T", e.Value)
	}
}

func set[V db.Value](ctx context.Context, o *prefs.Owner, name string, v V) (db.Preferences, error) {
	p, err := prefs.Declare[V](o, name)
	if err != nil {
		return db.Preferences{}, err
	}
	return p.Set(ctx, v)
}

// formatEntry prints an entry in the format used by all commands
func formatEntry(name string, e db.Entry, ok bool) string {
	if !ok {
		return fmt.Sprintf("name=%s, found=false", name)
	}
	value := fmt.Sprint(e.Value)
	if s, isSet := e.Value.(db.StringSet); isSet {
		value = strings.Join(s.Sorted(), ",")
	}
	return fmt.Sprintf("name=%s, kind=%s, value=%s", name, e.Kind, value)
}
