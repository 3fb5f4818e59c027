package preset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch reloads the preset at path whenever it is written or replaced and
// hands every valid version to onChange. Invalid edits are logged and
// skipped. Watch blocks until ctx is done.
//
// The parent directory is watched, not the file, so editors that save by
// rename keep triggering reloads.
func Watch(ctx context.Context, path string, log logrus.FieldLogger, onChange func(Preset)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("preset: create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)

	err = watcher.Add(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("preset: watch %s: %w", filepath.Dir(target), err)
	}

	log = log.WithFields(logrus.Fields{
		"function": "Watch",
		"path":     target,
	})
	log.Debug("Watching preset")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			p, err := Load(target)
			if err != nil {
				log.WithField("error", err).Warn("Preset reload failed")
				continue
			}

			log.WithField("preset", p.Name).Info("Preset reloaded")
			onChange(p)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			log.WithField("error", err).Error("Watcher error")
		}
	}
}
