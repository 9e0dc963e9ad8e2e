// Throughput harness for the streaming tokenizer: repeatedly cuts a gzipped
// XML document into fragments and reports fragments per second. With -query
// the harness also materializes each fragment and runs XPath over it, which
// exercises the full fragment -> tree -> query pipeline a downstream
// consumer would.
package main

import (
	"bufio"
	"compress/gzip"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/wilkmaciej/xpath"

	xmltokenizer "github.com/wilkmaciej/xmltokenizer"
	"github.com/wilkmaciej/xmltokenizer/internal/tree"
)

var (
	file       = flag.String("file", "test.xml.gz", "gzipped XML document to tokenize")
	path       = flag.String("path", "//item", "element path to match")
	wrap       = flag.Bool("wrap", false, "wrap mode instead of inject mode")
	queries    = flag.String("query", "", "comma-separated XPath expressions to run over each fragment")
	runs       = flag.Int("runs", 5, "measured runs after one warmup")
	cpuProfile = flag.String("cpuprofile", "", "write a CPU profile of the measured runs")
	memProfile = flag.String("memprofile", "", "write a heap profile after the measured runs")
)

func main() {
	flag.Parse()

	var exprs []*xpath.Expr
	if *queries != "" {
		for _, q := range strings.Split(*queries, ",") {
			expr, err := xpath.Compile(strings.TrimSpace(q))
			if err != nil {
				log.Fatalf("compiling query %q: %v", q, err)
			}
			exprs = append(exprs, expr)
		}
	}

	log.Printf("warmup: %s %s", *file, *path)
	runOnce(exprs)
	runtime.GC()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("creating %s: %v", *cpuProfile, err)
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	var total time.Duration
	var fastest time.Duration
	var fragments int
	for i := 0; i < *runs; i++ {
		runtime.GC()
		elapsed, count := runOnce(exprs)
		total += elapsed
		if fastest == 0 || elapsed < fastest {
			fastest = elapsed
		}
		fragments = count
		log.Printf("run %d/%d: %d fragments in %s (%.0f/sec)",
			i+1, *runs, count, elapsed, float64(count)/elapsed.Seconds())
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatalf("creating %s: %v", *memProfile, err)
		}
		runtime.GC()
		_ = pprof.WriteHeapProfile(f)
		_ = f.Close()
	}

	mean := total / time.Duration(*runs)
	fmt.Printf("\n%d fragments, %d runs\n", fragments, *runs)
	fmt.Printf("mean:    %s (%.0f fragments/sec)\n", mean, float64(fragments)/mean.Seconds())
	fmt.Printf("fastest: %s (%.0f fragments/sec)\n", fastest, float64(fragments)/fastest.Seconds())
}

func runOnce(exprs []*xpath.Expr) (time.Duration, int) {
	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("opening %s: %v", *file, err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		log.Fatalf("reading %s: %v", *file, err)
	}
	defer func() { _ = gz.Close() }()

	start := time.Now()

	cur, err := xmltokenizer.Tokenize(
		xmltokenizer.StaticMessage{Reader: bufio.NewReaderSize(gz, 1024*1024)},
		*path, nil, *wrap)
	if err != nil {
		log.Fatalf("tokenize: %v", err)
	}
	defer func() { _ = cur.Close() }()

	ctx := context.Background()
	count := 0
	for cur.HasNext() {
		fragment := cur.Next()
		count++
		if len(exprs) == 0 {
			continue
		}
		// Inject mode keeps the document's bindings on each fragment, so
		// prefixed queries resolve against the fragment alone.
		for node := range tree.NewBuilder(ctx, strings.NewReader(fragment), []string{rootName(fragment)}, 0).Nodes() {
			for _, expr := range exprs {
				_ = node.Text(expr)
			}
		}
	}
	if err := cur.LastError(); err != nil {
		log.Fatalf("stream error: %v", err)
	}

	return time.Since(start), count
}

// rootName extracts the fragment's root element name, as written, so the
// tree builder knows which element to deliver. Wrap-mode fragments may
// open with an XML declaration, which is skipped over.
func rootName(fragment string) string {
	for i := 0; i+1 < len(fragment); i++ {
		if fragment[i] != '<' {
			continue
		}
		if c := fragment[i+1]; c == '?' || c == '!' || c == '/' {
			continue
		}
		j := i + 1
		for j < len(fragment) && fragment[j] != ' ' && fragment[j] != '>' && fragment[j] != '/' {
			j++
		}
		return fragment[i+1 : j]
	}
	return ""
}
