// Package cli provides the interactive shell for relish.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/relishdb/relish/internal/config"
	"github.com/relishdb/relish/internal/logger"
	"github.com/relishdb/relish/pkg/catalog"
	"github.com/relishdb/relish/pkg/index"
	"github.com/relishdb/relish/pkg/sql"
)

// Shell is the line-oriented REPL. Input accumulates until a semicolon
// appears, then splits into statements that run one at a time against a
// shared executor.
type Shell struct {
	cfg  *config.Config
	log  *logger.Logger
	cat  *catalog.Catalog
	exec *sql.Executor
	rl   *readline.Instance
}

// NewShell creates a shell with a fresh catalog and executor.
func NewShell(cfg *config.Config, log *logger.Logger) *Shell {
	cat := catalog.New()
	idx := index.NewManagerTuned(cfg.Engine.BTreeOrder, cfg.Engine.HashBuckets)
	return &Shell{
		cfg:  cfg,
		log:  log,
		cat:  cat,
		exec: sql.NewExecutor(cat, idx, log.Named("exec").Base()),
	}
}

// Run drives the read-eval-print loop until .exit or EOF.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.cfg.Shell.Prompt,
		HistoryFile:     s.cfg.Shell.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
		AutoComplete:    newCompleter(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()
	s.rl = rl

	fmt.Println("relish shell. Type .help for usage.")

	var buf strings.Builder
	for {
		if buf.Len() > 0 {
			rl.SetPrompt("     ... ")
		} else {
			rl.SetPrompt(s.cfg.Shell.Prompt)
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf.Reset()
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// meta commands short-circuit tokenization
		if buf.Len() == 0 && strings.HasPrefix(trimmed, ".") {
			if s.runMeta(trimmed) {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		buf.WriteString(" ")
		if !strings.Contains(line, ";") {
			continue
		}

		pending := s.runStatements(buf.String())
		buf.Reset()
		buf.WriteString(pending)
	}
}

// runMeta handles dot-commands. Returns true when the shell should exit.
func (s *Shell) runMeta(input string) bool {
	switch strings.TrimSuffix(input, ";") {
	case ".exit":
		return true
	case ".help":
		s.printHelp()
	case ".list":
		s.printTables()
	default:
		fmt.Printf("error: unknown command %s (try .help)\n", input)
		s.log.Info("rejected meta command", "input", input)
	}
	return false
}

// runStatements splits the buffered input on semicolons and executes each
// non-empty segment. Text after the last semicolon is returned so it can
// keep accumulating.
func (s *Shell) runStatements(input string) string {
	segments := strings.Split(input, ";")
	pending := segments[len(segments)-1]
	for _, segment := range segments[:len(segments)-1] {
		stmtText := strings.TrimSpace(segment)
		if stmtText == "" {
			continue
		}
		s.runOne(stmtText)
	}
	if strings.TrimSpace(pending) == "" {
		return ""
	}
	return pending
}

func (s *Shell) runOne(stmtText string) {
	stmt, err := sql.NewParser(stmtText, s.cat).Parse()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		s.log.Info("parse failed", "input", stmtText, "error", err.Error())
		return
	}

	result, err := s.exec.Execute(stmt)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		s.log.Info("statement failed", "input", stmtText, "error", err.Error())
		return
	}
	if result != nil {
		fmt.Println(result.String())
	}
}

func (s *Shell) printHelp() {
	fmt.Println(`relish shell

SQL statements end with ; and may span multiple lines:
  CREATE TABLE name (col type [PRIMARY KEY|UNIQUE|NOT NULL|REFERENCES tbl(col)], ...) [STRICT];
  DROP TABLE name;
  CREATE INDEX idxname ON tbl (col) [USING HASH|BTREE];
  DROP INDEX idxname;
  INSERT INTO tbl [(cols)] VALUES (v, ...), ...;
  SELECT exprs FROM tbl [JOIN|LEFT JOIN tbl ON expr] [WHERE expr]
      [ORDER BY expr [DESC], ...] [LIMIT n];
  UPDATE tbl SET col = expr, ... [WHERE expr];
  DELETE FROM tbl [WHERE expr];
  EXPLAIN SELECT ...;

Meta commands:
  .list    list tables and their indexes
  .help    show this message
  .exit    leave the shell`)
}

func (s *Shell) printTables() {
	tables := s.exec.Catalog().Tables()
	if len(tables) == 0 {
		fmt.Println("no tables")
		return
	}
	for _, t := range tables {
		fmt.Printf("%s (%d columns, %d rows)\n", t.Name, len(t.Def.Columns), len(t.Rows))
		for _, idx := range s.exec.Indexes().ForTable(t.Name) {
			kind := "hash"
			if idx.Caps()&index.CapRange != 0 {
				kind = "btree"
			}
			fmt.Printf("  index %s on %s (%s)\n", idx.Name(), t.Def.Columns[idx.Column()].Name, kind)
		}
	}
}

func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("SELECT"),
		readline.PcItem("INSERT"),
		readline.PcItem("UPDATE"),
		readline.PcItem("DELETE"),
		readline.PcItem("EXPLAIN"),
		readline.PcItem("CREATE",
			readline.PcItem("TABLE"),
			readline.PcItem("INDEX"),
		),
		readline.PcItem("DROP",
			readline.PcItem("TABLE"),
			readline.PcItem("INDEX"),
		),
		readline.PcItem(".list"),
		readline.PcItem(".help"),
		readline.PcItem(".exit"),
	)
}
