package trainsim

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"time"

	"training-dashboard/pkg/store"
)

// Labels are the class names the simulator draws from.
var Labels = []string{"cat", "dog", "car", "plane"}

const (
	LossRandom = "random"
	LossDecay  = "decay"
)

// Config controls the simulated training run.
type Config struct {
	// Batches is the number of iterations to run; 0 runs until cancelled.
	Batches   int
	Step      time.Duration
	BatchSize int
	// Tiles is the number of sampled images per batch; 0 sends none and a
	// negative value selects the default.
	Tiles     int
	ImageSize int
	LossMode  string
	Seed      uint64
}

func DefaultConfig() Config {
	return Config{
		Batches:   10,
		Step:      300 * time.Millisecond,
		BatchSize: 32,
		Tiles:     store.MaxImages,
		ImageSize: 64,
		LossMode:  LossRandom,
	}
}

// Sink receives every produced batch. guard.Guard satisfies it.
type Sink interface {
	Forward(ctx context.Context, batch store.BatchRecord) bool
}

// Generator builds fake batches of random-noise images with random labels
// and predictions.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

func NewGenerator(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Tiles < 0 {
		cfg.Tiles = def.Tiles
	}
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = def.ImageSize
	}
	if cfg.LossMode == "" {
		cfg.LossMode = def.LossMode
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Batch produces the record for iteration. Tiles are sampled without
// replacement from the batch, so image ids are distinct batch indices.
func (g *Generator) Batch(iteration int64, fps float64) (store.BatchRecord, error) {
	tiles := min(g.cfg.Tiles, g.cfg.BatchSize, store.MaxImages)

	rec := store.BatchRecord{
		Iteration: iteration,
		Loss:      g.loss(iteration),
		FPS:       fps,
		Images:    make([]store.ImageSample, 0, tiles),
	}

	for _, idx := range g.rng.Perm(g.cfg.BatchSize)[:tiles] {
		data, err := noisePNG(g.rng, g.cfg.ImageSize)
		if err != nil {
			return store.BatchRecord{}, fmt.Errorf("iteration %d tile %d: %w", iteration, idx, err)
		}
		rec.Images = append(rec.Images, store.ImageSample{
			ID:             int32(idx),
			TrueLabel:      Labels[g.rng.IntN(len(Labels))],
			PredictedLabel: Labels[g.rng.IntN(len(Labels))],
			ImageData:      data,
		})
	}
	return rec, nil
}

func (g *Generator) loss(iteration int64) float64 {
	if g.cfg.LossMode == LossDecay {
		return 2.5*math.Exp(-float64(iteration)/50) + 0.1*g.rng.Float64()
	}
	return g.rng.Float64()
}

// Stats summarises a finished run.
type Stats struct {
	Iterations int64
	Forwarded  int64
}

// Trainer drives a Generator at a fixed step and hands each batch to a Sink.
type Trainer struct {
	cfg    Config
	gen    *Generator
	sink   Sink
	logger *log.Logger
}

func NewTrainer(cfg Config, sink Sink, logger *log.Logger) *Trainer {
	return &Trainer{
		cfg:    cfg,
		gen:    NewGenerator(cfg),
		sink:   sink,
		logger: logger,
	}
}

// Run produces batches until the configured count is reached or ctx is
// cancelled. A Sink that drops batches never stops the run.
func (t *Trainer) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	var fps float64
	last := time.Now()

	for iteration := int64(0); t.cfg.Batches <= 0 || iteration < int64(t.cfg.Batches); iteration++ {
		if err := ctx.Err(); err != nil {
			return stats, nil
		}

		batch, err := t.gen.Batch(iteration, fps)
		if err != nil {
			return stats, err
		}
		if t.sink.Forward(ctx, batch) {
			stats.Forwarded++
		}
		stats.Iterations++
		t.logger.Printf("sending batch iter=%d, tiles=%d, loss=%.4f", iteration, len(batch.Images), batch.Loss)

		if t.cfg.Step > 0 {
			select {
			case <-ctx.Done():
				return stats, nil
			case <-time.After(t.cfg.Step):
			}
		}

		now := time.Now()
		if dt := now.Sub(last).Seconds(); dt > 0 {
			fps = float64(t.gen.cfg.BatchSize) / dt
		}
		last = now
	}
	return stats, nil
}
