package help

const ColdstartYAML = `# visor-leads Quick Start

input_formats:
  chat: "Wrapped chat export (whole row quoted, JSON transcript inside)"
  table: "Conventional CSV or XLSX with arbitrary headers"
  auto: "Probe the file and pick one (default)"

output_schema: "nombre,email,telefono,renta,proyecto,observacion"

commands:
  basic_normalize: |
    visor-leads normalize prueba1.csv

  custom_output: |
    visor-leads normalize prueba1.csv --output leads_listos.csv

  without_ollama: |
    visor-leads normalize prueba1.csv --no-llm

  force_table_format: |
    visor-leads normalize export_crm.xlsx --format table

  custom_keywords: |
    visor-leads normalize export.csv --config visor.yaml

  import_existing: |
    visor-leads db import leads_listos.csv

  list_runs: |
    visor-leads db runs

  list_leads_of_run: |
    visor-leads db leads --run 3

notes:
  - "Ollama must serve llama3.2:latest on 127.0.0.1:11434 for enriched summaries"
  - "Leads summarized by the model carry the 🤖 marker in observacion"
  - "Without Ollama the observacion falls back to the client's own last messages"
`
