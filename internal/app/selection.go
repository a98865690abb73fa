package app

import (
	"fmt"
	"os"
	"time"

	"github.com/jgivc/coursecache/internal/entity"
	"gopkg.in/yaml.v2"
)

// selectionFile is the on-disk description of what to take offline. The
// selection states in the entity tree derive from the selected flags: a course
// with every tab and file selected is a full content sync.
type selectionFile struct {
	Courses []selectionCourse `yaml:"courses"`
}

type selectionCourse struct {
	ID           string              `yaml:"id"`
	CourseID     string              `yaml:"course_id"`
	Name         string              `yaml:"name"`
	HasFrontPage bool                `yaml:"has_front_page"`
	Everything   bool                `yaml:"everything"`
	Tabs         []selectionTab      `yaml:"tabs"`
	Files        []selectionFileItem `yaml:"files"`
}

type selectionTab struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Name     string `yaml:"name"`
	Selected bool   `yaml:"selected"`
}

type selectionFileItem struct {
	ID        string `yaml:"id"`
	FileID    string `yaml:"file_id"`
	Name      string `yaml:"name"`
	FileName  string `yaml:"file_name"`
	URL       string `yaml:"url"`
	MIMEClass string `yaml:"mime_class"`
	Size      int64  `yaml:"size"`
	UpdatedAt string `yaml:"updated_at"`
	Selected  bool   `yaml:"selected"`
}

// LoadSelection reads the selection yaml and builds the entry tree the sync
// runs over.
func LoadSelection(path string) ([]*entity.CourseEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read selection file: %w", err)
	}

	var sel selectionFile
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("cannot parse selection file: %w", err)
	}

	entries := make([]*entity.CourseEntry, 0, len(sel.Courses))
	for i := range sel.Courses {
		entry, err := buildEntry(&sel.Courses[i])
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func buildEntry(course *selectionCourse) (*entity.CourseEntry, error) {
	if course.CourseID == "" {
		return nil, fmt.Errorf("selection course %q has no course_id", course.Name)
	}

	id := course.ID
	if id == "" {
		id = course.CourseID
	}

	entry := &entity.CourseEntry{
		ID:           id,
		CourseID:     course.CourseID,
		Name:         course.Name,
		HasFrontPage: course.HasFrontPage,
	}

	selectedTabs := 0
	for _, tab := range course.Tabs {
		state := entity.Deselected
		if tab.Selected || course.Everything {
			state = entity.Selected
			selectedTabs++
		}

		entry.Tabs = append(entry.Tabs, entity.Tab{
			ID:             tab.ID,
			Type:           entity.TabType(tab.Type),
			Name:           tab.Name,
			SelectionState: state,
		})
	}

	selectedFiles := 0
	for _, file := range course.Files {
		state := entity.Deselected
		if file.Selected || course.Everything {
			state = entity.Selected
			selectedFiles++
		}

		var updatedAt time.Time
		if file.UpdatedAt != "" {
			parsed, err := time.Parse(time.RFC3339, file.UpdatedAt)
			if err != nil {
				return nil, fmt.Errorf("selection file %q has a bad updated_at: %w", file.Name, err)
			}
			updatedAt = parsed
		}

		entry.Files = append(entry.Files, entity.File{
			ID:             file.ID,
			FileID:         file.FileID,
			Name:           file.Name,
			FileName:       file.FileName,
			URL:            file.URL,
			MIMEClass:      file.MIMEClass,
			Size:           file.Size,
			UpdatedAt:      updatedAt,
			SelectionState: state,
		})
	}

	// A partial file selection turns the files tab partially selected, so the
	// downloaders know to keep the rest of the cached files alone.
	if selectedFiles > 0 && selectedFiles < len(course.Files) {
		if tab := entry.TabOfType(entity.TabFiles); tab != nil && tab.SelectionState == entity.Selected && !course.Everything {
			tab.SelectionState = entity.PartiallySelected
		}
	}

	switch {
	case course.Everything:
		entry.SelectionState = entity.Selected
	case selectedTabs > 0 || selectedFiles > 0:
		entry.SelectionState = entity.PartiallySelected
	default:
		entry.SelectionState = entity.Deselected
	}

	return entry, nil
}
