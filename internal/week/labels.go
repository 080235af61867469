package week

const (
	maxLabelRunes  = 15
	unknownProject = "Unknown Project"
	unknownTask    = "Unknown Task"
)

// ProjectLabel returns the display name for a project reference. Dangling
// references render as a placeholder instead of failing.
func ProjectLabel(projects []Project, id string) string {
	p, ok := FindProject(projects, id)
	if !ok {
		return unknownProject
	}
	return truncateLabel(p.Name)
}

// TaskLabel returns the display name for a task of the given project.
func TaskLabel(projects []Project, projectID, taskID string) string {
	for _, t := range TasksFor(projects, projectID) {
		if t.ID == taskID {
			return truncateLabel(t.Name)
		}
	}
	return unknownTask
}

func FindProject(projects []Project, id string) (Project, bool) {
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// ActiveProjects returns the projects offered when creating an entry.
func ActiveProjects(projects []Project) []Project {
	var active []Project
	for _, p := range projects {
		if p.Active() {
			active = append(active, p)
		}
	}
	return active
}

// TasksFor returns the tasks selectable for projectID. Nothing is selectable
// until a project is chosen.
func TasksFor(projects []Project, projectID string) []Task {
	if projectID == "" {
		return nil
	}
	p, ok := FindProject(projects, projectID)
	if !ok {
		return nil
	}
	return p.Tasks
}

func truncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelRunes {
		return s
	}
	return string(r[:maxLabelRunes]) + "..."
}
