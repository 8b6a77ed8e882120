package notify

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/logger"
	"github.com/teranos/gallery/schema"
)

var graphsByExtension = map[string]string{
	"mp3": "tracker:Audio", "ogg": "tracker:Audio", "oga": "tracker:Audio", "flac": "tracker:Audio",
	"wav": "tracker:Audio", "m4a": "tracker:Audio", "opus": "tracker:Audio", "m3u": "tracker:Audio",
	"pls": "tracker:Audio",
	"jpg": "tracker:Pictures", "jpeg": "tracker:Pictures", "png": "tracker:Pictures", "gif": "tracker:Pictures",
	"webp": "tracker:Pictures", "tif": "tracker:Pictures", "tiff": "tracker:Pictures", "heic": "tracker:Pictures",
	"mp4": "tracker:Video", "mkv": "tracker:Video", "webm": "tracker:Video", "avi": "tracker:Video",
	"mov": "tracker:Video", "ogv": "tracker:Video",
	"pdf": "tracker:Documents", "odt": "tracker:Documents", "doc": "tracker:Documents", "docx": "tracker:Documents",
	"txt": "tracker:Documents", "md": "tracker:Documents", "html": "tracker:Documents",
}

// UpdateIDsForPath classifies a changed path into the update ids of the
// item types it may affect.
func UpdateIDsForPath(path string, isDir bool) []int {
	if isDir {
		return []int{schema.FolderID}
	}
	ids := []int{schema.FileID}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if graph, ok := graphsByExtension[ext]; ok {
		for _, id := range schema.GraphUpdateIDs(graph) {
			if id != 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// FileWatcher turns filesystem events under a set of roots into debounced
// change notifications.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	notifier Notifier
	debounce time.Duration

	mu      sync.Mutex
	pending map[int]struct{}
	timer   *time.Timer
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewFileWatcher watches paths and their subdirectories.
func NewFileWatcher(notifier Notifier, paths []string, debounce time.Duration) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	fw := &FileWatcher{
		watcher:  w,
		notifier: notifier,
		debounce: debounce,
		pending:  make(map[int]struct{}),
		done:     make(chan struct{}),
	}
	for _, p := range paths {
		if err := fw.addTree(p); err != nil {
			w.Close()
			return nil, err
		}
	}
	return fw, nil
}

func (fw *FileWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

// Start begins delivering notifications.
func (fw *FileWatcher) Start() {
	fw.wg.Add(1)
	go fw.watchLoop()
}

// Close stops watching and drops any undelivered notification.
func (fw *FileWatcher) Close() error {
	close(fw.done)
	err := fw.watcher.Close()
	fw.wg.Wait()

	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()
	return err
}

func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("file watcher error",
				logger.FieldComponent, "notify",
				logger.FieldError, err)
		}
	}
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		isDir = true
		if event.Op&fsnotify.Create != 0 {
			if err := fw.addTree(event.Name); err != nil {
				logger.Warnw("failed to watch new directory",
					logger.FieldPath, event.Name,
					logger.FieldError, err)
			}
		}
	}

	logger.Debugw("file change",
		logger.FieldFile, event.Name,
		logger.FieldOperation, event.Op.String())
	fw.schedule(UpdateIDsForPath(event.Name, isDir))
}

func (fw *FileWatcher) schedule(ids []int) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, id := range ids {
		if id != 0 {
			fw.pending[id] = struct{}{}
		}
	}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.flush)
}

func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	ids := make([]int, 0, len(fw.pending))
	for id := range fw.pending {
		ids = append(ids, id)
	}
	fw.pending = make(map[int]struct{})
	fw.mu.Unlock()

	select {
	case <-fw.done:
		return
	default:
	}
	sort.Ints(ids)
	fw.notifier.ItemsChanged(ids...)
}
