package codd

// SampleData returns the relations used in the documentation and the
// REPL's \load command: E (employees), D (departments), Phone and
// ContractorPay.
func SampleData() map[string]*Relation {
	e := NewRelation([]string{"emp_id", "name", "salary", "dept_id", "role"})
	for _, row := range []struct {
		id     int64
		name   string
		salary int64
		dept   int64
		role   string
	}{
		{1, "Alice", 80000, 10, "engineer"},
		{2, "Bob", 60000, 10, "manager"},
		{3, "Carol", 55000, 20, "engineer"},
		{4, "Dave", 90000, 10, "engineer"},
		{5, "Eve", 45000, 20, "engineer"},
	} {
		e.add(NewTuple(map[string]Value{
			"emp_id":  IntValue(row.id),
			"name":    StringValue(row.name),
			"salary":  IntValue(row.salary),
			"dept_id": IntValue(row.dept),
			"role":    StringValue(row.role),
		}))
	}

	d := NewRelation([]string{"dept_id", "dept_name"})
	d.add(NewTuple(map[string]Value{"dept_id": IntValue(10), "dept_name": StringValue("Engineering")}))
	d.add(NewTuple(map[string]Value{"dept_id": IntValue(20), "dept_name": StringValue("Sales")}))

	phone := NewRelation([]string{"emp_id", "phone"})
	phone.add(NewTuple(map[string]Value{"emp_id": IntValue(1), "phone": StringValue("555-1234")}))
	phone.add(NewTuple(map[string]Value{"emp_id": IntValue(3), "phone": StringValue("555-5678")}))
	phone.add(NewTuple(map[string]Value{"emp_id": IntValue(3), "phone": StringValue("555-9999")}))

	pay := NewRelation([]string{"name", "pay"})
	pay.add(NewTuple(map[string]Value{"name": StringValue("Frank"), "pay": IntValue(70000)}))

	return map[string]*Relation{
		"E":             e,
		"D":             d,
		"Phone":         phone,
		"ContractorPay": pay,
	}
}
