package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sagelabs/widgetlab/internal/ctxlog"
)

// debounce coalesces the burst of fsnotify events an editor save produces.
const debounce = 200 * time.Millisecond

// Watch loads the catalog directory and reloads it whenever its files
// change, pushing each successfully loaded catalog on the returned channel
// (the initial load included). A load failure keeps the previous catalog and
// is logged, not fatal. The channel closes when ctx is cancelled.
func Watch(ctx context.Context, dir string) (<-chan *Catalog, error) {
	first, err := Load(dir)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create catalog watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch catalog dir: %w", err)
	}

	out := make(chan *Catalog, 1)
	out <- first

	go func() {
		defer close(out)
		defer watcher.Close()
		log := ctxlog.FromContext(ctx)

		var timer *time.Timer
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				pending = timer.C
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Catalog watcher error", "error", err)
			case <-pending:
				pending = nil
				cat, err := Load(dir)
				if err != nil {
					log.Warn("Catalog reload failed, keeping previous catalog", "error", err)
					continue
				}
				log.Info("Catalog reloaded", "widgets", len(cat.order), "templates", len(cat.templates))
				// Keep only the newest catalog pending; never block on a
				// slow consumer.
				select {
				case out <- cat:
				default:
					select {
					case <-out:
					default:
					}
					select {
					case out <- cat:
					default:
					}
				}
			}
		}
	}()
	return out, nil
}
