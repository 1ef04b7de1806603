package service

import (
	"sort"

	"taskboard/internal/domain"
)

// BuildBoard agrupa las tareas en las columnas del tablero, ordenadas por
// posición. Tareas con un estado desconocido caen en la primera columna.
func BuildBoard(tasks []domain.Task) []domain.Column {
	columns := make([]domain.Column, len(domain.BoardColumns))
	index := make(map[string]int, len(domain.BoardColumns))
	for i, col := range domain.BoardColumns {
		columns[i] = domain.Column{ID: col.ID, Name: col.Name, Tasks: []domain.Task{}}
		index[col.ID] = i
	}

	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			i = 0
		}
		columns[i].Tasks = append(columns[i].Tasks, t)
	}

	for i := range columns {
		sort.SliceStable(columns[i].Tasks, func(a, b int) bool {
			return columns[i].Tasks[a].Position < columns[i].Tasks[b].Position
		})
	}
	return columns
}
