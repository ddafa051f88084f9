package questionnaire

// Default returns the infrastructure diagnostic questionnaire served to the
// wizard. It panics only if the static table below is malformed.
func Default() *Catalog {
	c, err := NewCatalog(defaultQuestions)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultQuestions = []Question{
	{
		ID:       "usa_sapb1",
		Prompt:   "¿Actualmente su empresa utiliza SAP Business One?",
		Summary:  "Uso de SAP Business One",
		Kind:     KindSingle,
		Required: true,
		Choices: []Choice{
			{Value: "onprem", Label: "Sí, en servidores locales", Score: 2},
			{Value: "cloud", Label: "Sí, pero alojado en la nube", Score: 1},
			{Value: "plan_implementar", Label: "No, pero planeamos implementarlo pronto", Score: 2},
			{Value: "otro_erp", Label: "No, usamos otro ERP (especificar cuál)", Score: 1, RequiresText: true},
			{Value: "sin_erp", Label: "No usamos ERP", Score: 1},
		},
	},
	{
		ID:       "admin_servidores",
		Prompt:   "¿Quién administra actualmente sus servidores?",
		Summary:  "Administración de servidores",
		Kind:     KindSingle,
		Required: true,
		Choices: []Choice{
			{Value: "ti_interno", Label: "Internamente con equipo de TI propio", Score: 2},
			{Value: "proveedor_externo", Label: "Proveedor externo", Score: 1},
			{Value: "partner_sapb1", Label: "Partner SAP Business One", Score: 1},
		},
	},
	{
		ID:            "problemas_infra",
		Prompt:        "¿Qué problemas han experimentado con su infraestructura actual? (Puedes seleccionar hasta 2 opciones)",
		Summary:       "Problemas de infraestructura",
		Kind:          KindMulti,
		Required:      true,
		MaxSelections: 2,
		Choices: []Choice{
			{Value: "lentitud_caidas", Label: "Lentitud o caídas del sistema", Score: 2},
			{Value: "capacidad_rendimiento", Label: "Falta de capacidad o rendimiento", Score: 2},
			{Value: "riesgo_datos_respaldo", Label: "Riesgo de pérdida de datos o falta de respaldo", Score: 2},
			{Value: "costos_altos", Label: "Costos altos de mantenimiento o licencias", Score: 2},
			{Value: "ninguno", Label: "Ninguno por ahora", Score: 1},
			{Value: "otro", Label: "Otro (especificar)", Score: 2, RequiresText: true},
		},
	},
	{
		ID:       "donde_erp",
		Prompt:   "¿Dónde se encuentra actualmente alojado su ERP?",
		Summary:  "Ubicación actual del ERP",
		Kind:     KindSingle,
		Required: true,
		Choices: []Choice{
			{Value: "onprem_fisico", Label: "En un servidor físico dentro de la empresa", Score: 2},
			{Value: "dc_local", Label: "En un servidor virtual o data center local", Score: 2},
			{Value: "nube", Label: "En servidores nube", Score: 1},
		},
	},
	{
		ID:       "objetivo_iaas",
		Prompt:   "¿Qué busca su empresa lograr con una posible migración a IaaS para su ERP?",
		Summary:  "Objetivo de migración a IaaS",
		Kind:     KindSingle,
		Required: true,
		Choices: []Choice{
			{Value: "estabilidad_rendimiento", Label: "Mayor estabilidad y rendimiento del sistema", Score: 2},
			{Value: "seguridad_respaldo", Label: "Seguridad y respaldo continuo de la información", Score: 2},
			{Value: "optimizar_costos", Label: "Optimización de costos de infraestructura", Score: 2},
			{Value: "delegar_admin", Label: "Delegar la administración técnica a expertos", Score: 2},
			{Value: "solo_ver_opciones", Label: "Solo quiero ver diferentes opciones", Score: 1},
		},
	},
}
