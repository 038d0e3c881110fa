package pourdb

func (db *DB) GetName() (string, error) {
	var name string

	if _, err := db.getJSON(settingsBucket, nameKey, &name); err != nil {
		return "", err
	}

	return name, nil
}

func (db *DB) SetName(name string) error {
	return db.setJSON(settingsBucket, nameKey, name)
}

// GetPortion returns the last selected portion label, or an empty string
// when none was saved yet.
func (db *DB) GetPortion() (string, error) {
	var label string

	if _, err := db.getJSON(settingsBucket, portionKey, &label); err != nil {
		return "", err
	}

	return label, nil
}

func (db *DB) SetPortion(label string) error {
	return db.setJSON(settingsBucket, portionKey, label)
}
