package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Category
	}{
		{"outage electricity", "Отключение электричества на улице Ленина с 9:00 до 17:00", CategoryOutage},
		{"outage water", "Холодная вода будет недоступна в центре города", CategoryOutage},
		{"outage gas", "Плановые работы: газ отключат до вечера", CategoryOutage},
		{"event concert", "Концерт в парке в субботу", CategoryEvent},
		{"event festival", "Фестиваль уличной еды на набережной", CategoryEvent},
		{"event sport section", "Спортивная секция набор детей от 7 лет", CategoryEvent},
		{"event training", "Тренировка по футболу переносится", CategoryEvent},
		{"news default", "Открылся новый магазин на главной площади", CategoryNews},
		{"news empty", "", CategoryNews},
		{"english text falls through", "Road construction scheduled for Monday", CategoryNews},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	// Outage keywords win over event keywords when both match.
	got := Classify("Концерт отменён из-за отключения электричества")
	assert.Equal(t, CategoryOutage, got)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	assert.Equal(t, CategoryOutage, Classify("ОТКЛЮЧЕНИЕ ВОДЫ"))
	assert.Equal(t, CategoryEvent, Classify("КОНЦЕРТ"))
}

func TestClassifyDeterministic(t *testing.T) {
	text := "Отключение электричества и концерт в парке"
	first := Classify(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(text))
	}
}
