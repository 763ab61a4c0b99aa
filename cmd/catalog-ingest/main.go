// Command catalog-ingest bulk-loads a product catalog from a gzipped JSONL
// file. Lines are decoded on one goroutine and written by a pool of workers
// using batched inserts, so large catalog dumps load in a few seconds.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/freshcart/storefront/internal/repository"
)

type catalogRow struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	OfferPrice decimal.Decimal `json:"offerPrice"`
	Category   string          `json:"category"`
	Image      struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Tablet    string `json:"tablet"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

const insertCatalogRowSQL = `INSERT INTO products (id, name, price, offer_price, category, image_thumbnail, image_mobile, image_tablet, image_desktop)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		price = EXCLUDED.price,
		offer_price = EXCLUDED.offer_price,
		category = EXCLUDED.category,
		image_thumbnail = EXCLUDED.image_thumbnail,
		image_mobile = EXCLUDED.image_mobile,
		image_tablet = EXCLUDED.image_tablet,
		image_desktop = EXCLUDED.image_desktop`

func main() {
	var (
		databaseURL string
		catalogFile string
		batchSize   int
		workers     int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "", "path to gzipped JSONL catalog dump")
	flag.IntVar(&batchSize, "batch-size", 500, "rows per insert batch")
	flag.IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "concurrent insert workers")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" || catalogFile == "" {
		slog.Error("both --database-url (or DATABASE_URL) and --catalog-file are required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()

	total, err := run(ctx, databaseURL, catalogFile, batchSize, workers)
	if err != nil {
		slog.Error("ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("ingest completed",
		slog.Int("products", total),
		slog.Duration("elapsed", time.Since(start)),
	)
}

func run(ctx context.Context, databaseURL, catalogFile string, batchSize, workers int) (int, error) {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return 0, errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return 0, errors.Wrap(err, "run migrations")
	}

	f, err := os.Open(catalogFile)
	if err != nil {
		return 0, errors.Wrap(err, "open catalog file")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	batches := make(chan []catalogRow, workers)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(batches)
		return readBatches(ctx, gz, batchSize, batches)
	})

	var total atomic.Int64
	for range workers {
		g.Go(func() error {
			for batch := range batches {
				if err := insertBatch(ctx, pool, batch); err != nil {
					return err
				}
				total.Add(int64(len(batch)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(total.Load()), err
	}
	return int(total.Load()), nil
}

func readBatches(ctx context.Context, gz *pgzip.Reader, batchSize int, out chan<- []catalogRow) error {
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)

	batch := make([]catalogRow, 0, batchSize)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}

		var row catalogRow
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			return errors.Wrapf(err, "decode line %d", line)
		}
		if row.ID == "" {
			return errors.Errorf("line %d: missing product id", line)
		}

		batch = append(batch, row)
		if len(batch) == batchSize {
			select {
			case out <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
			batch = make([]catalogRow, 0, batchSize)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "scan catalog")
	}

	if len(batch) > 0 {
		select {
		case out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func insertBatch(ctx context.Context, pool *pgxpool.Pool, rows []catalogRow) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(insertCatalogRowSQL,
			r.ID, r.Name, r.Price, r.OfferPrice, r.Category,
			r.Image.Thumbnail, r.Image.Mobile, r.Image.Tablet, r.Image.Desktop,
		)
	}

	res := pool.SendBatch(ctx, b)
	defer res.Close()

	for range rows {
		if _, err := res.Exec(); err != nil {
			return errors.Wrap(err, "insert product batch")
		}
	}
	return nil
}
