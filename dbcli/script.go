package dbcli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/alekitto/btree/btree"
	"github.com/alekitto/btree/database"
)

var errUnknownCommand = errors.New("unknown command")

// session executes script commands against a single database. Snapshots
// may be given a label when taken; "@label" then names the read-only
// snapshot wherever a collection is expected.
type session struct {
	db     *database.Database
	out    io.Writer
	labels map[string]string
}

func newSession(db *database.Database, out io.Writer) *session {
	return &session{db: db, out: out, labels: make(map[string]string)}
}

type command struct {
	usage string
	// args is the exact argument count, or the minimum when variadic.
	args     int
	variadic bool
	run      func(s *session, args []string) error
}

var commands = map[string]command{
	"create":      {"create <coll>", 1, false, (*session).create},
	"drop":        {"drop <coll>", 1, false, (*session).drop},
	"push":        {"push <coll> <key> <value...>", 3, true, (*session).push},
	"update":      {"update <coll> <key> <value...>", 3, true, (*session).update},
	"get":         {"get <coll> <key>", 2, false, (*session).get},
	"search":      {"search <coll> <key> <equal|lesser|greater>", 3, false, (*session).search},
	"remove":      {"remove <coll> <key>", 2, false, (*session).remove},
	"count":       {"count <coll>", 1, false, (*session).count},
	"height":      {"height <coll>", 1, false, (*session).height},
	"list":        {"list <coll>", 1, false, (*session).list},
	"clear":       {"clear <coll>", 1, false, (*session).clear},
	"snapshot":    {"snapshot <coll> [label]", 1, true, (*session).snapshot},
	"restore":     {"restore <snapshot> <coll>", 2, false, (*session).restore},
	"check":       {"check <coll>", 1, false, (*session).check},
	"dump":        {"dump <coll>", 1, false, (*session).dump},
	"collections": {"collections", 0, false, (*session).collections},
	"snapshots":   {"snapshots", 0, false, (*session).snapshots},
}

// run executes r line by line and stops at the first failing command.
// Blank lines and lines starting with # are skipped.
func (s *session) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := s.exec(strings.Fields(text)); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
	}
	return errors.Wrap(scanner.Err(), "failed to read script")
}

func (s *session) exec(fields []string) error {
	name, args := fields[0], fields[1:]
	cmd, ok := commands[name]
	if !ok {
		return errors.Wrapf(errUnknownCommand, "%q", name)
	}
	if len(args) < cmd.args || (!cmd.variadic && len(args) > cmd.args) {
		return errors.Newf("usage: %s", cmd.usage)
	}
	return cmd.run(s, args)
}

func (s *session) println(a ...any) error {
	_, err := fmt.Fprintln(s.out, a...)
	return err
}

// collection resolves a collection name or an @snapshot reference.
func (s *session) collection(name string) (*database.Collection, error) {
	if ref, ok := strings.CutPrefix(name, "@"); ok {
		return s.db.GetSnapshot(s.snapshotID(ref))
	}
	return s.db.GetCollection(name)
}

func (s *session) snapshotID(ref string) string {
	ref = strings.TrimPrefix(ref, "@")
	if id, ok := s.labels[ref]; ok {
		return id
	}
	return ref
}

func (s *session) create(args []string) error {
	if _, err := s.db.CreateCollection(args[0]); err != nil {
		return err
	}
	return s.println("OK")
}

func (s *session) drop(args []string) error {
	if err := s.db.DropCollection(args[0]); err != nil {
		return err
	}
	return s.println("OK")
}

func (s *session) push(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	if err := coll.InsertKV(args[1], strings.Join(args[2:], " ")); err != nil {
		return err
	}
	return s.println("OK")
}

func (s *session) update(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	updated, err := coll.UpdateKV(args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	if !updated {
		return s.println("not found")
	}
	return s.println("updated")
}

func (s *session) get(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	value, found := coll.FindKey(args[1])
	if !found {
		return s.println("(nil)")
	}
	return s.println(value)
}

func (s *session) search(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	mode, err := btree.ParseMode(args[2])
	if err != nil {
		return err
	}
	key, value, found := coll.Search(args[1], mode)
	if !found {
		return s.println("(nil)")
	}
	return s.println(key, "=", value)
}

func (s *session) remove(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	removed, err := coll.DeleteKey(args[1])
	if err != nil {
		return err
	}
	if !removed {
		return s.println("not found")
	}
	return s.println("removed")
}

func (s *session) count(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	return s.println(coll.Count())
}

func (s *session) height(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	return s.println(coll.Height())
}

func (s *session) list(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	for key, value := range coll.All() {
		if err := s.println(key, "=", value); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) clear(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	if err := coll.Clear(); err != nil {
		return err
	}
	return s.println("OK")
}

func (s *session) snapshot(args []string) error {
	if len(args) > 2 {
		return errors.New("usage: snapshot <coll> [label]")
	}
	id, err := s.db.Snapshot(args[0])
	if err != nil {
		return err
	}
	if len(args) == 2 {
		s.labels[args[1]] = id
	}
	return s.println(id)
}

func (s *session) restore(args []string) error {
	if _, err := s.db.Restore(s.snapshotID(args[0]), args[1]); err != nil {
		return err
	}
	return s.println("OK")
}

func (s *session) check(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	if err := coll.Verify(); err != nil {
		return errors.Wrapf(err, "collection %q is corrupt", args[0])
	}
	return s.println("OK")
}

func (s *session) dump(args []string) error {
	coll, err := s.collection(args[0])
	if err != nil {
		return err
	}
	return coll.Dump(s.out)
}

func (s *session) collections([]string) error {
	for _, name := range s.db.ListCollections() {
		if err := s.println(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) snapshots([]string) error {
	for _, id := range s.db.ListSnapshots() {
		if err := s.println(id); err != nil {
			return err
		}
	}
	return nil
}

func newRunCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "run [script]",
		Short: "Execute a script of collection commands",
		Long: "Executes a line-oriented script against a fresh in-memory database. " +
			"The script is read from the given file, or from stdin when omitted or '-'.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, "failed to open script")
				}
				defer f.Close()
				in = f
			}

			db, err := e.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := newSession(db, cmd.OutOrStdout()).run(in); err != nil {
				return err
			}
			return e.printMetrics(cmd.ErrOrStderr())
		},
	}
}
